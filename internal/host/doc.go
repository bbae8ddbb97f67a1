// Package host runs out-of-process plugin runtimes and the channels to them.
//
// One host per runtime (python, nodejs): the host spawns the runtime's
// bridge process, dials a persistent websocket channel to it, and multiplexes
// every plugin of that runtime over the single channel. Outbound calls are
// correlated to responses purely by request id; plugin-initiated requests
// (ShowApp, HideApp) flow the other way through the inbound dispatcher.
//
// Lifecycle:
//   - Start: allocate port → spawn process → grace wait → bounded connect
//     attempts. Any failure tears the process down and leaves the host in
//     Init; callers recreate a host rather than restarting one.
//   - Running: read loop feeds frames to the consume loop; a keep-alive ping
//     goes out on a fixed interval; an unexpected close triggers reconnects
//     with a doubling, never-reset backoff.
//   - Stop: close channel, kill process, abandon all pending invocations
//     with ErrChannelClosed. Idempotent.
//
// Failure handling:
//   - Spawn failure or immediate exit → SpawnError
//   - Connect windows exhausted → ErrConnectTimeout
//   - Send on a closed channel → ErrChannelClosed
//   - Plugin-reported error → RemoteInvocationError (other calls unaffected)
//   - Malformed frames, orphan responses, unknown inbound methods → logged
//     and dropped, never fatal
package host
