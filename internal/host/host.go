package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cuichenli/Wox/internal/config"
	"github.com/cuichenli/Wox/internal/events"
	"github.com/cuichenli/Wox/internal/plugin"
	"github.com/cuichenli/Wox/internal/protocol"
)

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks github.com/cuichenli/Wox/internal/host AppNotifier

// Status is the coarse lifecycle of a host. Transitions are monotonic:
// Init -> Running -> Stopped. A failed host is recreated, never restarted.
type Status int32

const (
	StatusInit Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// AppNotifier receives UI notifications that plugins push through the
// channel. Implementations must not block; calls come from the frame
// consume loop.
type AppNotifier interface {
	ShowApp()
	HideApp()
}

// Host manages one runtime host process and the channel to it. All plugins
// of the same runtime share a single host.
type Host interface {
	Runtime() plugin.Runtime
	Status() Status

	Start(ctx context.Context) error
	Stop()

	LoadPlugin(ctx context.Context, meta *plugin.Metadata, dir string) (*Instance, error)
	UnloadPlugin(ctx context.Context, meta *plugin.Metadata) error
	InvokeMethod(ctx context.Context, meta *plugin.Metadata, method string, params map[string]string) (json.RawMessage, error)
}

// Instance is a handle to one plugin loaded into a host.
type Instance struct {
	Meta *plugin.Metadata

	host Host
}

// Invoke calls a named method on this plugin.
func (i *Instance) Invoke(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	return i.host.InvokeMethod(ctx, i.Meta, method, params)
}

// Unload removes this plugin from its host.
func (i *Instance) Unload(ctx context.Context) error {
	return i.host.UnloadPlugin(ctx, i.Meta)
}

// WebsocketHost is the concrete Host backed by a spawned interpreter process
// and a persistent websocket channel.
type WebsocketHost struct {
	runtime  plugin.Runtime
	cfg      config.RuntimeConfig
	timing   config.TimingConfig
	logDir   string
	hub      *events.Hub
	notifier AppNotifier
	logger   *slog.Logger

	mu         sync.Mutex
	status     Status
	starting   bool
	sup        *supervisor
	ch         *channel
	cancel     context.CancelFunc
	registry   *invocationRegistry
	dispatcher *inboundDispatcher
}

// Option tweaks host construction.
type Option func(*WebsocketHost)

// WithNotifier attaches the UI surface plugins can address.
func WithNotifier(n AppNotifier) Option {
	return func(h *WebsocketHost) { h.notifier = n }
}

// WithHub routes lifecycle events through a shared hub.
func WithHub(hub *events.Hub) Option {
	return func(h *WebsocketHost) { h.hub = hub }
}

// NewPythonHost builds a host for Python plugins.
func NewPythonHost(cfg config.RuntimeConfig, timing config.TimingConfig, logDir string, logger *slog.Logger, opts ...Option) *WebsocketHost {
	return newWebsocketHost(plugin.RuntimePython, cfg, timing, logDir, logger, opts...)
}

// NewNodejsHost builds a host for Node.js plugins.
func NewNodejsHost(cfg config.RuntimeConfig, timing config.TimingConfig, logDir string, logger *slog.Logger, opts ...Option) *WebsocketHost {
	return newWebsocketHost(plugin.RuntimeNodejs, cfg, timing, logDir, logger, opts...)
}

// NewHost builds a host for an arbitrary runtime name.
func NewHost(runtime plugin.Runtime, cfg config.RuntimeConfig, timing config.TimingConfig, logDir string, logger *slog.Logger, opts ...Option) *WebsocketHost {
	return newWebsocketHost(runtime, cfg, timing, logDir, logger, opts...)
}

func newWebsocketHost(runtime plugin.Runtime, cfg config.RuntimeConfig, timing config.TimingConfig, logDir string, logger *slog.Logger, opts ...Option) *WebsocketHost {
	h := &WebsocketHost{
		runtime: runtime,
		cfg:     cfg,
		timing:  timing,
		logDir:  logDir,
		logger:  logger,
		status:  StatusInit,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.hub == nil {
		h.hub = events.NewHub(64)
	}
	if h.notifier == nil {
		h.notifier = noopNotifier{}
	}
	return h
}

func (h *WebsocketHost) Runtime() plugin.Runtime { return h.runtime }

func (h *WebsocketHost) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Start spawns the runtime host process and establishes the channel. On any
// failure the process is torn down and the host stays in Init; the caller
// decides whether to build a new host and try again. ctx bounds only the
// start sequence, not the host's lifetime. A Stop racing the start sequence
// wins: Start tears everything down and the status stays Stopped.
func (h *WebsocketHost) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.status != StatusInit || h.starting {
		status := h.status
		h.mu.Unlock()
		return fmt.Errorf("%w: status %s", ErrAlreadyStarted, status)
	}
	h.starting = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.starting = false
		h.mu.Unlock()
	}()

	port, err := allocatePort()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	// Expose the cancel func before any waiting begins so a concurrent
	// Stop can cut the grace/connect phase short.
	h.mu.Lock()
	if h.status == StatusStopped {
		h.mu.Unlock()
		cancel()
		return fmt.Errorf("%w: stopped during start", ErrNotRunning)
	}
	h.cancel = cancel
	h.mu.Unlock()

	sup := newSupervisor(h.cfg.Command, h.logger)
	if err := sup.start(h.cfg.HostEntry, port, h.logDir); err != nil {
		cancel()
		return err
	}

	ch := newChannel(runCtx, string(h.runtime), port, h.timing, h.hub, h.logger)
	if err := h.connectWithin(ctx, ch); err != nil {
		ch.close()
		cancel()
		sup.stop()
		if h.Status() == StatusStopped {
			return fmt.Errorf("%w: stopped during start", ErrNotRunning)
		}
		return err
	}

	h.mu.Lock()
	if h.status == StatusStopped {
		h.mu.Unlock()
		ch.close()
		cancel()
		sup.stop()
		return fmt.Errorf("%w: stopped during start", ErrNotRunning)
	}
	h.status = StatusRunning
	h.sup = sup
	h.ch = ch
	h.registry = newInvocationRegistry(h.logger)
	h.dispatcher = newInboundDispatcher(string(h.runtime), h.notifier, h.hub, h.logger)
	h.mu.Unlock()

	go h.consumeLoop(runCtx, ch)

	h.logger.Info("host started", "runtime", h.runtime, "pid", sup.pid(), "port", port)
	return nil
}

// connectWithin runs the channel connect sequence but lets ctx cancellation
// cut it short.
func (h *WebsocketHost) connectWithin(ctx context.Context, ch *channel) error {
	done := make(chan error, 1)
	go func() {
		done <- ch.connect(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consumeLoop drains the channel's inbound frames: responses resolve pending
// invocations, requests go to the dispatcher, anything undecodable is logged
// and dropped so one bad frame never takes the loop down.
func (h *WebsocketHost) consumeLoop(ctx context.Context, ch *channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-ch.frames():
			req, resp, err := protocol.Decode(data)
			switch {
			case err != nil:
				h.logger.Warn("malformed frame dropped", "error", err, "size", len(data))
			case resp != nil:
				if resp.IsKeepAlive() {
					h.logger.Debug("keep-alive reply", "id", resp.ID)
					continue
				}
				h.registry.resolve(resp)
			case req != nil:
				h.dispatcher.handle(req)
			}
		}
	}
}

// InvokeMethod sends a correlated request to the plugin and blocks until its
// response arrives, the context expires, or the channel dies.
func (h *WebsocketHost) InvokeMethod(ctx context.Context, meta *plugin.Metadata, method string, params map[string]string) (json.RawMessage, error) {
	h.mu.Lock()
	if h.status != StatusRunning {
		status := h.status
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: status %s", ErrNotRunning, status)
	}
	ch, registry := h.ch, h.registry
	h.mu.Unlock()

	req := &protocol.Request{
		ID:         uuid.NewString(),
		Method:     method,
		PluginID:   meta.ID,
		PluginName: meta.Name,
		Params:     params,
	}
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	pending := registry.register(req.ID)
	if err := ch.send(data); err != nil {
		registry.remove(req.ID)
		return nil, err
	}

	select {
	case result := <-pending.done:
		if result.err != nil {
			return nil, result.err
		}
		if result.resp.Error != "" {
			return nil, &RemoteInvocationError{
				Method: method,
				Plugin: meta.Name,
				Reason: result.resp.Error,
			}
		}
		return result.resp.Result, nil
	case <-ctx.Done():
		registry.remove(req.ID)
		return nil, ctx.Err()
	}
}

// LoadPlugin verifies the plugin and asks the runtime host to load it. dir
// overrides the plugin directory when the caller stages files elsewhere;
// empty means the metadata's own directory.
func (h *WebsocketHost) LoadPlugin(ctx context.Context, meta *plugin.Metadata, dir string) (*Instance, error) {
	if meta.Runtime != h.runtime {
		return nil, fmt.Errorf("plugin %s targets runtime %s, host is %s", meta.ID, meta.Runtime, h.runtime)
	}
	if err := plugin.VerifyChecksum(meta); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = meta.Directory
	}

	params := map[string]string{
		"pluginId":        meta.ID,
		"pluginDirectory": dir,
		"pluginEntry":     meta.Entry,
	}
	if _, err := h.InvokeMethod(ctx, meta, protocol.MethodLoadPlugin, params); err != nil {
		return nil, fmt.Errorf("load plugin %s: %w", meta.ID, err)
	}

	h.hub.Publish(events.TypePluginLoaded, string(h.runtime), meta.Name)
	h.logger.Info("plugin loaded", "plugin", meta.Name, "id", meta.ID)
	return &Instance{Meta: meta, host: h}, nil
}

// UnloadPlugin asks the runtime host to drop the plugin. Failures are logged
// but not propagated; unload is best-effort and the process is killed on
// Stop regardless.
func (h *WebsocketHost) UnloadPlugin(ctx context.Context, meta *plugin.Metadata) error {
	if h.Status() != StatusRunning {
		return nil
	}

	params := map[string]string{"pluginId": meta.ID}
	if _, err := h.InvokeMethod(ctx, meta, protocol.MethodUnloadPlugin, params); err != nil {
		h.logger.Warn("unload plugin failed", "plugin", meta.Name, "error", err)
	}
	return nil
}

// Stop tears everything down: the channel, the consume loop, the process,
// and every invocation still in flight. Idempotent. A host that never
// started just flips to Stopped; a Start still in flight observes the
// stopped status at commit time and tears down what it built.
func (h *WebsocketHost) Stop() {
	h.mu.Lock()
	if h.status == StatusStopped {
		h.mu.Unlock()
		return
	}
	started := h.status == StatusRunning
	h.status = StatusStopped
	ch, cancel, sup, registry := h.ch, h.cancel, h.sup, h.registry
	h.mu.Unlock()

	if !started {
		if cancel != nil {
			cancel()
		}
		return
	}

	ch.close()
	cancel()
	sup.stop()
	registry.abandonAll(ErrChannelClosed)

	h.hub.Publish(events.TypeHostStopped, string(h.runtime), "")
	h.logger.Info("host stopped", "runtime", h.runtime)
}
