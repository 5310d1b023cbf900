// Command crosstest-decode reads JSON from stdin with an address and optional
// expected prefixes, decodes it, and writes the payload and prefix as JSON to
// stdout. Failures are reported by kind rather than by exit status.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pinch-protocol/ss58/internal/convert"
)

type output struct {
	Payload string `json:"payload,omitempty"`
	Prefix  *int   `json:"prefix,omitempty"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var in convert.DecodeRequest
	if err := json.NewDecoder(os.Stdin).Decode(&in); err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode input: %v\n", err)
		os.Exit(1)
	}

	out := output{}
	res, err := convert.New().Decode(in)
	out.Kind = convert.ErrorKind(err)
	if err != nil {
		out.Error = err.Error()
	} else {
		out.Payload = res.Payload
		out.Prefix = res.Prefix
	}

	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
