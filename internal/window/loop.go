package window

import "sync"

// Loop runs closures on the execution context that owns the windowing
// surface. Invoke must not block waiting for fn to run.
type Loop interface {
	Invoke(fn func()) error
}

// LoopFunc adapts a scheduling function, such as glib.IdleAdd, to Loop.
type LoopFunc func(fn func())

// Invoke schedules fn.
func (f LoopFunc) Invoke(fn func()) error {
	f(fn)
	return nil
}

// GoroutineLoop is a Loop backed by a single dedicated goroutine.
// Closures run one at a time in submission order.
type GoroutineLoop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
}

// NewGoroutineLoop starts a new GoroutineLoop.
func NewGoroutineLoop() *GoroutineLoop {
	l := &GoroutineLoop{
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go l.run()
	return l
}

// Invoke queues fn. It returns ErrLoopStopped after Stop.
func (l *GoroutineLoop) Invoke(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop drains already queued closures and terminates the goroutine.
func (l *GoroutineLoop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.doneCh
		return
	}
	l.stopped = true
	close(l.stopCh)
	l.mu.Unlock()

	<-l.doneCh
}

func (l *GoroutineLoop) run() {
	defer close(l.doneCh)

	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.stopCh:
			l.drain()
			return
		}
	}
}

func (l *GoroutineLoop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
