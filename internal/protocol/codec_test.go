package protocol

import (
	"strings"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
		checkFn func(t *testing.T, output string)
	}{
		{
			name: "valid invoke request",
			req: &Request{
				ID:         "req-123",
				Method:     "query",
				PluginID:   "plugin-1",
				PluginName: "calculator",
				Params:     map[string]string{"expression": "1+1"},
			},
			wantErr: false,
			checkFn: func(t *testing.T, output string) {
				if !strings.Contains(output, `"id":"req-123"`) {
					t.Error("missing id field")
				}
				if !strings.Contains(output, `"type":"request"`) {
					t.Error("type discriminator not filled in")
				}
				if !strings.Contains(output, `"pluginName":"calculator"`) {
					t.Error("missing pluginName field")
				}
				if !strings.Contains(output, `"expression":"1+1"`) {
					t.Error("missing params")
				}
			},
		},
		{
			name: "loadPlugin request",
			req: &Request{
				ID:         "req-456",
				Method:     MethodLoadPlugin,
				PluginID:   "plugin-1",
				PluginName: "calculator",
				Type:       TypeRequest,
				Params: map[string]string{
					"pluginId":        "plugin-1",
					"pluginDirectory": "/plugins/calculator",
					"pluginEntry":     "/plugins/calculator/main.py",
				},
			},
			wantErr: false,
			checkFn: func(t *testing.T, output string) {
				if !strings.Contains(output, `"method":"loadPlugin"`) {
					t.Error("missing method field")
				}
			},
		},
		{
			name:    "missing id",
			req:     &Request{Method: "query"},
			wantErr: true,
		},
		{
			name:    "missing method",
			req:     &Request{ID: "req-789"},
			wantErr: true,
		},
		{
			name:    "foreign type tag",
			req:     &Request{ID: "req-789", Method: "query", Type: "notification"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeRequest(tt.req)

			if (err != nil) != tt.wantErr {
				t.Errorf("EncodeRequest() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, string(data))
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantReq  bool
		wantResp bool
		checkFn  func(t *testing.T, req *Request, resp *Response)
	}{
		{
			name:    "inbound request frame",
			input:   `{"id":"abc","method":"ShowApp","pluginId":"p1","pluginName":"launcher","type":"request","params":{}}`,
			wantReq: true,
			checkFn: func(t *testing.T, req *Request, resp *Response) {
				if req.Method != MethodShowApp {
					t.Errorf("want method ShowApp, got %s", req.Method)
				}
			},
		},
		{
			name:     "response with result",
			input:    `{"id":"abc","result":{"x":"1"}}`,
			wantResp: true,
			checkFn: func(t *testing.T, req *Request, resp *Response) {
				if string(resp.Result) != `{"x":"1"}` {
					t.Errorf("result not preserved: %s", resp.Result)
				}
			},
		},
		{
			name:     "response with error",
			input:    `{"id":"abc","error":"plugin exploded"}`,
			wantResp: true,
			checkFn: func(t *testing.T, req *Request, resp *Response) {
				if resp.Error != "plugin exploded" {
					t.Errorf("want error message, got %q", resp.Error)
				}
			},
		},
		{
			name:     "keep-alive response",
			input:    `{"id":"abc","method":"ping"}`,
			wantResp: true,
			checkFn: func(t *testing.T, req *Request, resp *Response) {
				if !resp.IsKeepAlive() {
					t.Error("want keep-alive response")
				}
			},
		},
		{
			name:    "request missing method",
			input:   `{"id":"abc","type":"request"}`,
			wantErr: true,
		},
		{
			name:    "unknown type discriminator",
			input:   `{"id":"abc","type":"notification"}`,
			wantErr: true,
		},
		{
			name:    "no discriminator and no id",
			input:   `{"result":{}}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			input:   `{not json}`,
			wantErr: true,
		},
		{
			name:    "empty frame",
			input:   ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, resp, err := Decode([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if tt.wantReq && req == nil {
				t.Fatal("want a request, got none")
			}
			if tt.wantResp && resp == nil {
				t.Fatal("want a response, got none")
			}
			if req != nil && resp != nil {
				t.Fatal("frame decoded as both request and response")
			}

			if tt.checkFn != nil {
				tt.checkFn(t, req, resp)
			}
		})
	}
}
