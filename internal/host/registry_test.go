package host

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuichenli/Wox/internal/protocol"
)

func TestRegistryResolveRoundTrip(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	p := r.register("req-1")
	require.Equal(t, 1, r.size())

	r.resolve(&protocol.Response{ID: "req-1", Result: []byte(`"ok"`)})

	select {
	case result := <-p.done:
		require.NoError(t, result.err)
		assert.JSONEq(t, `"ok"`, string(result.resp.Result))
	case <-time.After(time.Second):
		t.Fatal("invocation never resolved")
	}
	assert.Equal(t, 0, r.size())
}

func TestRegistryOutOfOrderResolution(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	first := r.register("req-1")
	second := r.register("req-2")

	// Responses arrive in reverse order; correlation is by id only.
	r.resolve(&protocol.Response{ID: "req-2", Result: []byte(`2`)})
	r.resolve(&protocol.Response{ID: "req-1", Result: []byte(`1`)})

	assert.Equal(t, `1`, string((<-first.done).resp.Result))
	assert.Equal(t, `2`, string((<-second.done).resp.Result))
}

func TestRegistryOrphanResponseDropped(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	p := r.register("req-1")

	// Unknown id must not disturb the pending slot.
	r.resolve(&protocol.Response{ID: "never-sent"})
	assert.Equal(t, 1, r.size())

	r.resolve(&protocol.Response{ID: "req-1"})
	require.NoError(t, (<-p.done).err)
}

func TestRegistryRemoveMakesLateResponseOrphan(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	p := r.register("req-1")
	r.remove("req-1")
	r.resolve(&protocol.Response{ID: "req-1"})

	select {
	case <-p.done:
		t.Fatal("removed slot must not resolve")
	default:
	}
}

func TestRegistryKeepAliveNeverResolves(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	p := r.register("req-1")
	r.resolve(&protocol.Response{ID: "req-1", Method: protocol.MethodPing})

	select {
	case <-p.done:
		t.Fatal("keep-alive reply must not resolve an invocation")
	default:
	}
	assert.Equal(t, 1, r.size())
}

func TestRegistryAbandonAll(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	first := r.register("req-1")
	second := r.register("req-2")

	r.abandonAll(ErrChannelClosed)

	for _, p := range []*pendingInvocation{first, second} {
		result := <-p.done
		require.Error(t, result.err)
		assert.True(t, errors.Is(result.err, ErrChannelClosed))
	}
	assert.Equal(t, 0, r.size())
}

func TestRegistryResolveAtMostOnce(t *testing.T) {
	r := newInvocationRegistry(testLogger())

	p := r.register("req-1")
	r.resolve(&protocol.Response{ID: "req-1", Result: []byte(`1`)})
	// Duplicate is an orphan by then.
	r.resolve(&protocol.Response{ID: "req-1", Result: []byte(`2`)})

	assert.Equal(t, `1`, string((<-p.done).resp.Result))
	select {
	case <-p.done:
		t.Fatal("slot resolved twice")
	default:
	}
}
