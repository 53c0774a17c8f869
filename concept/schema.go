package concept

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// workingInterpretationSchema is generated once from WorkingInterpretation's
// struct tags and compiled into a validator that rejects both unrecognized
// keys and wrongly-typed values, so a malformed plan fails at load time with
// a precise schema error rather than a confusing mapstructure one.
var (
	workingInterpretationSchemaOnce sync.Once
	workingInterpretationSchema     *validator.Schema
	workingInterpretationSchemaErr  error
)

func compiledWorkingInterpretationSchema() (*validator.Schema, error) {
	workingInterpretationSchemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			RequiredFromJSONSchemaTags: false,
			ExpandedStruct:             true,
			DoNotReference:             true,
		}
		schema := reflector.Reflect(&WorkingInterpretation{})
		schema.AdditionalProperties = nil // set explicitly below via raw map

		data, err := json.Marshal(schema)
		if err != nil {
			workingInterpretationSchemaErr = fmt.Errorf("concept: marshaling working_interpretation schema: %w", err)
			return
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			workingInterpretationSchemaErr = fmt.Errorf("concept: decoding working_interpretation schema: %w", err)
			return
		}
		doc["additionalProperties"] = false

		c := validator.NewCompiler()
		if err := c.AddResource("working_interpretation.json", doc); err != nil {
			workingInterpretationSchemaErr = fmt.Errorf("concept: compiling working_interpretation schema: %w", err)
			return
		}
		compiled, err := c.Compile("working_interpretation.json")
		if err != nil {
			workingInterpretationSchemaErr = fmt.Errorf("concept: compiling working_interpretation schema: %w", err)
			return
		}
		workingInterpretationSchema = compiled
	})
	return workingInterpretationSchema, workingInterpretationSchemaErr
}

// validateWorkingInterpretationSchema checks raw against the generated
// schema before mapstructure decoding, catching unrecognized keys and type
// mismatches (e.g. a string where syntax.quantifier_index needs an int) in
// one pass.
func validateWorkingInterpretationSchema(raw map[string]any) error {
	schema, err := compiledWorkingInterpretationSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so the decoded values (float64s, []any, etc.)
	// match what the compiled schema expects instead of Go's native types.
	data, err := json.Marshal(raw)
	if err != nil {
		return newLoadError(BadReference, "working_interpretation not JSON-representable: %v", err)
	}
	var inst any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return newLoadError(BadReference, "working_interpretation decode failed: %v", err)
	}

	if err := schema.Validate(inst); err != nil {
		return newLoadError(BadReference, "working_interpretation schema validation failed: %v", err)
	}
	return nil
}
