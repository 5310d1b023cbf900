// Command crosstest-encode reads JSON from stdin with a hex payload and a
// prefix, encodes it as an SS58 address, and writes the result as JSON to
// stdout. Other implementations use it to check their vectors.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pinch-protocol/ss58/internal/convert"
)

type output struct {
	Address string `json:"address,omitempty"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var in convert.EncodeRequest
	if err := json.NewDecoder(os.Stdin).Decode(&in); err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode input: %v\n", err)
		os.Exit(1)
	}

	out := output{}
	res, err := convert.New().Encode(in)
	out.Kind = convert.ErrorKind(err)
	if err != nil {
		out.Error = err.Error()
	} else {
		out.Address = res.Address
	}

	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
