// wox-host-stub is a reference runtime host for local development. It speaks
// the same wire contract as the real python/nodejs hosts: spawned with
// (entry, port, logDir), it serves a websocket on the port, answers ping and
// loadPlugin/unloadPlugin, and echoes every other method back as its result.
//
// Point a runtime at it to exercise the full host lifecycle without an
// interpreter installed:
//
//	runtimes:
//	  python:
//	    command: wox-host-stub
//	    host_entry: /dev/null
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cuichenli/Wox/internal/protocol"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: wox-host-stub <entry> <port> [logDir]")
		os.Exit(1)
	}
	port := os.Args[2]

	upgrader := websocket.Upgrader{}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(conn)
	})

	if err := http.ListenAndServe("127.0.0.1:"+port, nil); err != nil {
		fmt.Fprintf(os.Stderr, "listen failed: %v\n", err)
		os.Exit(1)
	}
}

func serve(conn *websocket.Conn) {
	defer conn.Close()

	// The websocket permits one concurrent writer.
	var writeMu sync.Mutex
	reply := func(resp *protocol.Response) error {
		data, err := protocol.EncodeResponse(resp)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	loaded := make(map[string]bool)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		req, _, err := protocol.Decode(data)
		if err != nil || req == nil {
			continue
		}

		if err := reply(handle(req, loaded)); err != nil {
			return
		}
	}
}

func handle(req *protocol.Request, loaded map[string]bool) *protocol.Response {
	resp := &protocol.Response{ID: req.ID, Method: req.Method}

	switch req.Method {
	case protocol.MethodPing:
		resp.Result = []byte(`"pong"`)
	case protocol.MethodLoadPlugin:
		loaded[req.Params["pluginId"]] = true
		resp.Result = []byte(`"loaded"`)
	case protocol.MethodUnloadPlugin:
		delete(loaded, req.Params["pluginId"])
		resp.Result = []byte(`"unloaded"`)
	default:
		if !loaded[req.PluginID] {
			resp.Error = fmt.Sprintf("plugin %s is not loaded", req.PluginID)
			return resp
		}
		resp.Result = []byte(fmt.Sprintf("%q", "echo:"+req.Method))
	}
	return resp
}
