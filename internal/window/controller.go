package window

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the lifecycle state of a named window.
type State int

const (
	StateNonExistent State = iota
	StateCreated
	StateVisible
	StateHidden
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNonExistent:
		return "nonexistent"
	case StateCreated:
		return "created"
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Info is a snapshot of one registry entry.
type Info struct {
	Name       string
	State      State
	InstanceID string // ULID assigned at creation, empty if never created
	Position   Point
	Positioned bool // false until a placement has been applied
	CreatedAt  time.Time
	ShownAt    time.Time
}

// ChangeCallback is called on the loop after every state transition.
// It must not call back into the Controller.
type ChangeCallback func(info Info)

// entry is the registry record for a live surface.
type entry struct {
	handle     Handle
	instanceID string
	state      State
	position   Point
	positioned bool
	createdAt  time.Time
	shownAt    time.Time
}

// Controller owns the named-window registry. The registry is only touched
// from closures running on the loop.
type Controller struct {
	host        Host
	loop        Loop
	logger      *slog.Logger
	baseURL     string
	descriptors map[string]Descriptor
	entropy     io.Reader // instance id randomness

	// loop-confined
	windows  map[string]*entry
	onChange ChangeCallback
}

// Option configures a Controller.
type Option func(*Controller)

// WithDescriptors replaces the built-in descriptors.
func WithDescriptors(descriptors map[string]Descriptor) Option {
	return func(c *Controller) {
		c.descriptors = make(map[string]Descriptor, len(descriptors))
		for name, d := range descriptors {
			d.Name = name
			c.descriptors[name] = d
		}
	}
}

// WithBaseURL sets the front-end base URL that descriptor routes are joined to.
func WithBaseURL(base string) Option {
	return func(c *Controller) {
		c.baseURL = base
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller driving host on loop.
func NewController(host Host, loop Loop, opts ...Option) *Controller {
	c := &Controller{
		host:        host,
		loop:        loop,
		logger:      slog.Default(),
		descriptors: DefaultDescriptors(),
		entropy:     rand.Reader,
		windows:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Descriptors returns a copy of the configured descriptors.
func (c *Controller) Descriptors() map[string]Descriptor {
	out := make(map[string]Descriptor, len(c.descriptors))
	for name, d := range c.descriptors {
		out[name] = d
	}
	return out
}

// OnChange sets the callback fired after state transitions.
func (c *Controller) OnChange(ctx context.Context, cb ChangeCallback) error {
	return c.do(ctx, func() error {
		c.onChange = cb
		return nil
	})
}

// Show makes the named window visible and focused, creating it first when
// its descriptor allows it. The position is recomputed on every call.
func (c *Controller) Show(ctx context.Context, name string) error {
	return c.do(ctx, func() error {
		return c.showLocked(name)
	})
}

// Hide hides the named window. Hiding a window that does not exist is a no-op.
func (c *Controller) Hide(ctx context.Context, name string) error {
	return c.do(ctx, func() error {
		return c.hideLocked(name)
	})
}

// Toggle hides the named window when it is visible and shows it otherwise.
func (c *Controller) Toggle(ctx context.Context, name string) error {
	return c.do(ctx, func() error {
		if e := c.lookupLocked(name); e != nil && e.state == StateVisible {
			return c.hideLocked(name)
		}
		return c.showLocked(name)
	})
}

// Prepare creates the named window without showing it. It is a no-op when
// the window already exists.
func (c *Controller) Prepare(ctx context.Context, name string) error {
	return c.do(ctx, func() error {
		d, ok := c.descriptors[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWindow, name)
		}
		if c.lookupLocked(name) != nil {
			return nil
		}
		_, err := c.createLocked(d)
		return err
	})
}

// Info returns a snapshot of the named window.
func (c *Controller) Info(ctx context.Context, name string) (Info, error) {
	var info Info
	err := c.do(ctx, func() error {
		if _, ok := c.descriptors[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownWindow, name)
		}
		info = c.infoLocked(name)
		return nil
	})
	return info, err
}

// List returns snapshots of every known window, sorted by name.
func (c *Controller) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := c.do(ctx, func() error {
		for _, name := range Names(c.descriptors) {
			infos = append(infos, c.infoLocked(name))
		}
		return nil
	})
	return infos, err
}

// do runs fn on the loop and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := c.loop.Invoke(func() {
		result <- fn()
	}); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lookupLocked returns the live entry for name, dropping entries whose
// surface the host has destroyed. Must run on the loop.
func (c *Controller) lookupLocked(name string) *entry {
	e, ok := c.windows[name]
	if !ok {
		return nil
	}
	if e.handle.Closed() {
		c.logger.Debug("window surface destroyed by host, forgetting it",
			"window", name,
			"instance_id", e.instanceID,
		)
		delete(c.windows, name)
		c.notifyLocked(name)
		return nil
	}
	return e
}

func (c *Controller) createLocked(d Descriptor) (*entry, error) {
	url, err := d.URL(c.baseURL)
	if err != nil {
		return nil, hostError("create", d.Name, err)
	}

	// The id comes first so a failure cannot leave an unregistered surface.
	id, err := ulid.New(ulid.Timestamp(time.Now()), c.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance id: %w", err)
	}

	handle, err := c.host.Create(d, url)
	if err != nil {
		return nil, hostError("create", d.Name, err)
	}

	e := &entry{
		handle:     handle,
		instanceID: id.String(),
		state:      StateCreated,
		createdAt:  time.Now(),
	}
	c.windows[d.Name] = e

	c.logger.Debug("created window",
		"window", d.Name,
		"url", url,
		"instance_id", e.instanceID,
	)
	c.notifyLocked(d.Name)

	return e, nil
}

func (c *Controller) showLocked(name string) error {
	d, ok := c.descriptors[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}

	e := c.lookupLocked(name)
	if e == nil {
		if !d.OnDemand {
			return fmt.Errorf("%w: %q", ErrWindowNotFound, name)
		}
		var err error
		if e, err = c.createLocked(d); err != nil {
			return err
		}
	}

	// Placement is best effort: neither a missing display geometry nor a
	// refused position blocks visibility.
	if geometry, err := c.host.PrimaryDisplay(); err != nil {
		c.logger.Debug("primary display unavailable, skipping placement",
			"window", name,
			"error", err,
		)
	} else {
		pos := d.Placement.Position(geometry, d.Size)
		if err := e.handle.SetPosition(pos); err != nil {
			c.logger.Warn("failed to position window, showing at its last position",
				"window", name,
				"error", hostError("position", name, err),
			)
		} else {
			e.position = pos
			e.positioned = true
		}
	}

	if err := e.handle.Show(); err != nil {
		return hostError("show", name, err)
	}
	e.state = StateVisible
	e.shownAt = time.Now()

	if err := e.handle.Focus(); err != nil {
		c.notifyLocked(name)
		return hostError("focus", name, err)
	}

	c.logger.Debug("showed window",
		"window", name,
		"x", e.position.X,
		"y", e.position.Y,
	)
	c.notifyLocked(name)
	return nil
}

func (c *Controller) hideLocked(name string) error {
	if _, ok := c.descriptors[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}

	e := c.lookupLocked(name)
	if e == nil {
		return nil
	}

	if err := e.handle.Hide(); err != nil {
		return hostError("hide", name, err)
	}
	e.state = StateHidden

	c.logger.Debug("hid window", "window", name)
	c.notifyLocked(name)
	return nil
}

func (c *Controller) infoLocked(name string) Info {
	e := c.lookupLocked(name)
	if e == nil {
		return Info{Name: name, State: StateNonExistent}
	}
	return e.info(name)
}

// notifyLocked reports the current registry record for name without
// re-checking the host, so a just-forgotten surface reports nonexistent.
func (c *Controller) notifyLocked(name string) {
	if c.onChange == nil {
		return
	}
	e, ok := c.windows[name]
	if !ok {
		c.onChange(Info{Name: name, State: StateNonExistent})
		return
	}
	c.onChange(e.info(name))
}

func (e *entry) info(name string) Info {
	return Info{
		Name:       name,
		State:      e.state,
		InstanceID: e.instanceID,
		Position:   e.position,
		Positioned: e.positioned,
		CreatedAt:  e.createdAt,
		ShownAt:    e.shownAt,
	}
}
