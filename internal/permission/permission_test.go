package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBroker_MicrophoneAlwaysGranted(t *testing.T) {
	b := NewDefaultBroker(nil)

	for range 3 {
		granted, err := b.RequestMicrophone(context.Background())
		require.NoError(t, err)
		assert.True(t, granted)
	}
}

func TestBroker_Unsupported(t *testing.T) {
	b := NewBroker(nil)

	granted, err := b.Request(context.Background(), CapabilityMicrophone)
	assert.False(t, granted)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBroker_PluggableBackend(t *testing.T) {
	b := NewDefaultBroker(nil)
	b.Register(CapabilityMicrophone, Static{Granted: false})

	granted, err := b.RequestMicrophone(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)

	var asked Capability
	b.Register("camera", RequesterFunc(func(_ context.Context, c Capability) (bool, error) {
		asked = c
		return true, nil
	}))

	granted, err = b.Request(context.Background(), "camera")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, Capability("camera"), asked)
}

func TestBroker_BackendError(t *testing.T) {
	cause := errors.New("portal unavailable")
	b := NewBroker(nil)
	b.Register(CapabilityMicrophone, RequesterFunc(func(context.Context, Capability) (bool, error) {
		return true, cause
	}))

	granted, err := b.RequestMicrophone(context.Background())
	assert.False(t, granted)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "microphone")
}
