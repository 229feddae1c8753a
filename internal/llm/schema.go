package llm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed pattern.schema.json
var patternSchemaJSON []byte

var patternSchema = jsonschema.MustCompileString("pattern.schema.json", string(patternSchemaJSON))

// validateDocumentJSON checks raw model output against the PatternDocument
// schema and returns one problem per failing location.
func validateDocumentJSON(data []byte) ([]string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	err := patternSchema.Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var problems []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || e.KeywordLocation == "" {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		problems = append(problems, loc+": "+e.Error)
	}
	if len(problems) == 0 {
		problems = append(problems, ve.Error())
	}
	return problems, nil
}
