package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/edneedham/cred/internal/apperr"
)

const apiVersion = "1"

type envelopeOK struct {
	APIVersion string `json:"api_version"`
	Status     string `json:"status"`
	Data       any    `json:"data"`
}

type envelopeErr struct {
	APIVersion string          `json:"api_version"`
	Status     string          `json:"status"`
	Error      envelopeErrBody `json:"error"`
}

type envelopeErrBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// emitOK prints data as the success envelope when json is true, or calls
// human for human-readable output otherwise.
func emitOK(jsonMode bool, data any, human func()) {
	if !jsonMode {
		human()
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(envelopeOK{APIVersion: apiVersion, Status: "ok", Data: data})
}

// emitErr renders err (as JSON envelope or stderr prose per jsonMode) and
// exits the process with err's mapped exit code.
func emitErr(jsonMode bool, err error) {
	code := apperr.CodeOf(err)
	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(envelopeErr{
			APIVersion: apiVersion,
			Status:     "error",
			Error: envelopeErrBody{
				Code:    code.String(),
				Message: err.Error(),
			},
		})
	} else {
		_, _ = fmt.Fprintln(os.Stderr, styleError(err.Error()))
	}
	os.Exit(int(code))
}
