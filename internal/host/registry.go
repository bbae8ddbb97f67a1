package host

import (
	"log/slog"
	"sync"

	"github.com/cuichenli/Wox/internal/protocol"
)

// invocationResult is what a caller blocked in InvokeMethod eventually gets:
// either the correlated response or the abandonment error, never both.
type invocationResult struct {
	resp *protocol.Response
	err  error
}

// pendingInvocation is a single-resolution completion slot. The done channel
// is buffered so resolution never blocks the receive loop, and entries are
// removed from the registry before sending so each slot resolves at most once.
type pendingInvocation struct {
	id   string
	done chan invocationResult
}

// invocationRegistry correlates outbound calls to their responses by id. It
// is the one structure mutated concurrently by callers and the receive loop.
type invocationRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingInvocation
	logger  *slog.Logger
}

func newInvocationRegistry(logger *slog.Logger) *invocationRegistry {
	return &invocationRegistry{
		pending: make(map[string]*pendingInvocation),
		logger:  logger,
	}
}

// register creates the completion slot for a new invocation id.
func (r *invocationRegistry) register(id string) *pendingInvocation {
	p := &pendingInvocation{
		id:   id,
		done: make(chan invocationResult, 1),
	}

	r.mu.Lock()
	r.pending[id] = p
	r.mu.Unlock()

	return p
}

// remove discards a slot whose caller gave up (send failure, ctx cancel).
// A response arriving later for this id is treated as an orphan.
func (r *invocationRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// resolve completes the slot matching the response id. Orphan responses are
// logged and dropped; they legitimately happen when a caller already gave up
// or a late duplicate arrives. Keep-alive replies never belong here and are
// discarded as defense in depth (the consume loop filters them first).
func (r *invocationRegistry) resolve(resp *protocol.Response) {
	if resp.IsKeepAlive() {
		return
	}

	r.mu.Lock()
	p, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("orphan response dropped", "id", resp.ID, "method", resp.Method)
		return
	}

	p.done <- invocationResult{resp: resp}
}

// abandonAll resolves every outstanding slot with err so no caller blocks
// forever. Invoked on fatal channel failure or explicit stop.
func (r *invocationRegistry) abandonAll(err error) {
	r.mu.Lock()
	abandoned := r.pending
	r.pending = make(map[string]*pendingInvocation)
	r.mu.Unlock()

	for _, p := range abandoned {
		p.done <- invocationResult{err: err}
	}

	if len(abandoned) > 0 {
		r.logger.Info("abandoned pending invocations", "count", len(abandoned), "reason", err)
	}
}

// size reports the number of outstanding invocations.
func (r *invocationRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
