// Command enhance-json reads one JSON request from the first argument or
// stdin and writes one JSON response to stdout. Failures are reported in the
// response with a zero exit status.
//
//	enhance-json '{"imageData":"...","options":{"scale":2,"quality":75}}'
//	cat request.json | enhance-json
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/nvr-ai/go-enhance/config"
	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/transport"
)

func main() {
	// stdout carries the response only.
	logger := log.New(os.Stderr, "", log.LstdFlags)
	pipeline := enhance.New(enhance.WithLogger(logger))

	base := enhance.DefaultConfig()
	if err := config.ApplyEnvOverrides(&base); err != nil {
		writeOrDie(transport.Failure(err))
		return
	}

	var (
		req transport.Request
		err error
	)
	if len(os.Args) > 1 {
		req, err = transport.DecodeRequest(strings.NewReader(os.Args[1]))
	} else {
		req, err = transport.DecodeRequest(os.Stdin)
	}
	if err != nil {
		writeOrDie(transport.Failure(err))
		return
	}

	writeOrDie(transport.Handle(context.Background(), pipeline, base, req))
}

func writeOrDie(resp transport.Response) {
	if err := transport.WriteResponse(os.Stdout, resp); err != nil {
		log.Fatal(err)
	}
}
