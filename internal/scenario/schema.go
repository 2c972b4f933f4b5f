package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrCodeSchema marks structural errors reported by ValidateSchema.
const ErrCodeSchema = "E200"

// ValidateSchema checks a raw scenario document against the embedded CUE
// schema. It catches wrong types, unknown ops and misplaced fields before
// the document is decoded into Go types.
//
// Returns all errors found (does not fail-fast). A document that is not
// YAML at all yields a single error.
func ValidateSchema(data []byte) []ValidationError {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{
			Field:   "document",
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build defect.
		panic(fmt.Sprintf("scenario schema does not compile: %v", err))
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return cueValidationErrors(err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueValidationErrors(err)
	}

	return nil
}

// cueValidationErrors flattens a CUE error list into ValidationErrors,
// one per distinct path and message.
func cueValidationErrors(err error) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)

	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "document"
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		key := field + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, ValidationError{
			Field:   field,
			Code:    ErrCodeSchema,
			Message: msg,
		})
	}

	if len(out) == 0 {
		out = append(out, ValidationError{Field: "document", Code: ErrCodeSchema, Message: err.Error()})
	}
	return out
}
