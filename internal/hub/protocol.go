package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pinch-protocol/ss58/internal/convert"
)

var (
	errBinaryFrame   = errors.New("binary frames are not supported")
	errUnknownOp     = errors.New("unknown op")
	errMissingFormat = errors.New("convert requires a format")
)

// Request is one message sent by a session.
type Request struct {
	ID             string `json:"id"`
	Op             string `json:"op"`
	Address        string `json:"address,omitempty"`
	Payload        string `json:"payload,omitempty"`
	Format         *int   `json:"format,omitempty"`
	Expect         []int  `json:"expect,omitempty"`
	IgnoreChecksum bool   `json:"ignoreChecksum,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	ID     string          `json:"id"`
	Result *convert.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

// handle decodes one request frame and returns the encoded response.
func (h *Hub) handle(data []byte) []byte {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("", fmt.Errorf("malformed request: %w", err))
	}

	var (
		res convert.Result
		err error
	)
	switch req.Op {
	case "encode":
		res, err = h.svc.Encode(convert.EncodeRequest{Payload: req.Payload, Format: req.Format})
	case "decode":
		res, err = h.svc.Decode(convert.DecodeRequest{Address: req.Address, Expect: req.Expect, IgnoreChecksum: req.IgnoreChecksum})
	case "convert":
		if req.Format == nil {
			return errorResponse(req.ID, errMissingFormat)
		}
		res, err = h.svc.Convert(convert.ConvertRequest{Address: req.Address, Format: *req.Format})
	default:
		return errorResponse(req.ID, fmt.Errorf("%w %q", errUnknownOp, req.Op))
	}
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return marshal(Response{ID: req.ID, Result: &res})
}

func errorResponse(id string, err error) []byte {
	kind := convert.ErrorKind(err)
	if kind == "internal" {
		kind = "bad_request"
	}
	return marshal(Response{ID: id, Error: err.Error(), Kind: kind})
}

func marshal(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// Response holds only strings, ints and slices.
		panic(fmt.Sprintf("hub: marshal response: %v", err))
	}
	return data
}
