package protocol

import "encoding/json"

// TypeRequest is the discriminator value carried by request envelopes.
// Responses carry no type field; decoding tells them apart by its absence.
const TypeRequest = "request"

// Reserved method names shared by the core and the runtime hosts.
const (
	// MethodPing is the keep-alive request sent by the channel. Replies that
	// echo this method are transport-level and never reach the registry.
	MethodPing = "ping"

	// MethodLoadPlugin and MethodUnloadPlugin are host-side operations the
	// core invokes on the runtime host process.
	MethodLoadPlugin   = "loadPlugin"
	MethodUnloadPlugin = "unloadPlugin"

	// MethodShowApp and MethodHideApp are the inbound-only operations a
	// plugin may invoke on the core.
	MethodShowApp = "ShowApp"
	MethodHideApp = "HideApp"
)

// Request represents the envelope for a method invocation. It travels in
// both directions: the core sends requests to invoke plugin methods, and the
// runtime host sends requests to invoke core operations.
type Request struct {
	ID         string            `json:"id"`
	Method     string            `json:"method"`
	PluginID   string            `json:"pluginId"`
	PluginName string            `json:"pluginName"`
	Type       string            `json:"type"` // always "request"
	Params     map[string]string `json:"params"`
}

// Response represents the envelope answering a request. Exactly one response
// exists per request id, correlated solely by that id.
type Response struct {
	ID     string          `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// IsKeepAlive reports whether the response answers a keep-alive ping.
func (r *Response) IsKeepAlive() bool {
	return r.Method == MethodPing
}
