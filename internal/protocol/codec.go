package protocol

import (
	"encoding/json"
	"fmt"
)

// EncodeRequest serializes a Request to a single JSON text frame.
// The type discriminator is filled in if the caller left it empty.
func EncodeRequest(req *Request) ([]byte, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("request is missing an id")
	}
	if req.Method == "" {
		return nil, fmt.Errorf("request is missing a method")
	}
	if req.Type == "" {
		req.Type = TypeRequest
	}
	if req.Type != TypeRequest {
		return nil, fmt.Errorf("invalid request type %q (must be %q)", req.Type, TypeRequest)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

// EncodeResponse serializes a Response to a single JSON text frame.
func EncodeResponse(resp *Response) ([]byte, error) {
	if resp.ID == "" {
		return nil, fmt.Errorf("response is missing an id")
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return data, nil
}

// Decode parses one inbound text frame into either a Request or a Response,
// discriminating on the type field: frames tagged "request" are requests,
// anything else with an id is a response. Exactly one of the two returns is
// non-nil on success. A decode error covers a single frame only; callers log
// and drop, it never affects other in-flight invocations.
func Decode(data []byte) (*Request, *Response, error) {
	var probe struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("frame is not valid JSON: %w", err)
	}

	if probe.Type == TypeRequest {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, nil, fmt.Errorf("failed to decode request frame: %w", err)
		}
		if req.Method == "" {
			return nil, nil, fmt.Errorf("request frame missing method")
		}
		return &req, nil, nil
	}

	if probe.Type != "" {
		return nil, nil, fmt.Errorf("unknown frame type %q", probe.Type)
	}

	if probe.ID == "" {
		return nil, nil, fmt.Errorf("frame has neither a type discriminator nor an id")
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response frame: %w", err)
	}
	return nil, &resp, nil
}
