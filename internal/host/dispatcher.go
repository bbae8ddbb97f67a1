package host

import (
	"log/slog"

	"github.com/cuichenli/Wox/internal/events"
	"github.com/cuichenli/Wox/internal/protocol"
)

// inboundDispatcher routes host-initiated requests (the reverse direction of
// the channel) to the application. The wire contract defines no response for
// these, so handling is strictly fire-and-forget.
type inboundDispatcher struct {
	notifier AppNotifier
	hub      *events.Hub
	logger   *slog.Logger
	runtime  string
}

func newInboundDispatcher(runtime string, notifier AppNotifier, hub *events.Hub, logger *slog.Logger) *inboundDispatcher {
	return &inboundDispatcher{
		notifier: notifier,
		hub:      hub,
		logger:   logger,
		runtime:  runtime,
	}
}

func (d *inboundDispatcher) handle(req *protocol.Request) {
	switch req.Method {
	case protocol.MethodShowApp:
		d.logger.Info("show app requested by plugin", "plugin", req.PluginName)
		d.hub.Publish(events.TypeAppShow, d.runtime, req.PluginName)
		d.notifier.ShowApp()
	case protocol.MethodHideApp:
		d.logger.Info("hide app requested by plugin", "plugin", req.PluginName)
		d.hub.Publish(events.TypeAppHide, d.runtime, req.PluginName)
		d.notifier.HideApp()
	default:
		d.logger.Warn("invalid inbound request ignored", "method", req.Method, "plugin", req.PluginName)
	}
}

// noopNotifier is the default when no UI surface is attached.
type noopNotifier struct{}

func (noopNotifier) ShowApp() {}
func (noopNotifier) HideApp() {}
