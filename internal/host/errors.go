package host

import (
	"errors"
	"fmt"
)

var (
	// ErrPortAllocation means no free local port could be reserved for the
	// runtime host process.
	ErrPortAllocation = errors.New("no free port available")

	// ErrConnectTimeout means both connect attempt windows were exhausted
	// without the runtime host accepting the channel.
	ErrConnectTimeout = errors.New("timed out connecting to runtime host")

	// ErrChannelClosed resolves pending invocations abandoned by a fatal
	// channel failure or an explicit stop.
	ErrChannelClosed = errors.New("runtime host channel closed")

	// ErrAlreadyStarted guards against reusing a host instance; a failed
	// host is recreated, never restarted in place.
	ErrAlreadyStarted = errors.New("host already started")

	// ErrNotRunning rejects invocations on a host that never reached or
	// already left the running state.
	ErrNotRunning = errors.New("host is not running")
)

// SpawnError means the runtime host process could not be created or exited
// immediately after creation.
type SpawnError struct {
	Entry string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn runtime host %s: %v", e.Entry, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// RemoteInvocationError carries the error description a plugin returned for
// one specific invocation. Other in-flight calls are unaffected.
type RemoteInvocationError struct {
	Method string
	Plugin string
	Reason string
}

func (e *RemoteInvocationError) Error() string {
	return fmt.Sprintf("remote invocation %s on plugin %s failed: %s", e.Method, e.Plugin, e.Reason)
}
