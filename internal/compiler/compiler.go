// Package compiler turns CUE event definitions into ledger-ready event
// arguments. Uses the CUE SDK's Go API directly (not CLI subprocess).
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a compilation failure tied to a definition field, with
// the CUE source position when available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts a CUE SDK error into a CompileError, keeping
// the first position CUE reports.
func formatCUEError(err error) error {
	var pos token.Pos
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		pos = errs[0].Position()
	}
	return &CompileError{
		Field:   "cue",
		Message: cueerrors.Details(err, nil),
		Pos:     pos,
	}
}

// LoadEventFile reads and compiles a single CUE event definition file.
func LoadEventFile(path string) (*EventDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event definition: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Definitions may nest the event under a top-level "event" field or be
	// the whole file.
	if ev := v.LookupPath(cue.ParsePath("event")); ev.Exists() {
		v = ev
	}
	return CompileEventDefinition(v)
}
