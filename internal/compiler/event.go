package compiler

import (
	"cuelang.org/go/cue"

	"github.com/Predictory42/predictory/internal/ledger"
)

// EventDefinition is the compiled form of a CUE event file: everything
// needed to create an event and its options in one go.
type EventDefinition struct {
	Name                  string
	Description           string
	StartDate             int64
	EndDate               int64
	ParticipationDeadline *int64
	IsPrivate             bool
	Options               []string
}

// CompileEventDefinition parses a CUE value into an EventDefinition.
//
// The CUE value should be the event struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`name: "derby", start_date: 100, ...`)
//	def, err := CompileEventDefinition(v)
func CompileEventDefinition(v cue.Value) (*EventDefinition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &EventDefinition{}
	var err error

	if def.Name, err = requiredString(v, "name"); err != nil {
		return nil, err
	}
	if def.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if def.StartDate, err = requiredInt(v, "start_date"); err != nil {
		return nil, err
	}
	if def.EndDate, err = requiredInt(v, "end_date"); err != nil {
		return nil, err
	}
	if def.StartDate >= def.EndDate {
		return nil, &CompileError{
			Field:   "end_date",
			Message: "end_date must be after start_date",
			Pos:     v.Pos(),
		}
	}

	if dv := v.LookupPath(cue.ParsePath("participation_deadline")); dv.Exists() {
		d, err := dv.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if d < def.StartDate || d > def.EndDate {
			return nil, &CompileError{
				Field:   "participation_deadline",
				Message: "participation_deadline must lie within [start_date, end_date]",
				Pos:     dv.Pos(),
			}
		}
		def.ParticipationDeadline = &d
	}

	if pv := v.LookupPath(cue.ParsePath("private")); pv.Exists() {
		if def.IsPrivate, err = pv.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	optsVal := v.LookupPath(cue.ParsePath("options"))
	if !optsVal.Exists() {
		return nil, &CompileError{
			Field:   "options",
			Message: "options list is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := optsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		desc, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Options = append(def.Options, desc)
	}
	if len(def.Options) < 2 {
		return nil, &CompileError{
			Field:   "options",
			Message: "an event needs at least two options",
			Pos:     optsVal.Pos(),
		}
	}
	if len(def.Options) > int(ledger.MaxOptionCount) {
		return nil, &CompileError{
			Field:   "options",
			Message: "too many options",
			Pos:     optsVal.Pos(),
		}
	}

	return def, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}
