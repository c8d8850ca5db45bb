package llm

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/danielpatrickdp/tastegate/internal/failure"
)

// #endregion

// #region extract

// ErrNoJSONObject is returned when a model response contains no {...} span.
var ErrNoJSONObject = errors.New("no JSON object in response")

// ExtractJSON returns the span from the first '{' to the last '}' of a model
// response, which tolerates prose or code fences around the object.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return raw[start : end+1], nil
}

// #endregion

// #region decode

// Schema is a compiled JSON schema for one collaborator response shape.
type Schema struct {
	stage  string
	schema *gojsonschema.Schema
}

// MustSchema compiles a JSON schema literal; it panics on an invalid schema,
// so schemas are declared as package-level vars.
func MustSchema(stage, literal string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(literal))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid %s schema: %v", stage, err))
	}
	return &Schema{stage: stage, schema: s}
}

// DecodeJSON extracts the JSON object from raw, validates it against schema and
// unmarshals it into out. Errors are failure.ParseFailure (not JSON) or
// failure.ValidationFailure (JSON of the wrong shape).
func DecodeJSON(raw string, schema *Schema, out any) error {
	body, err := ExtractJSON(raw)
	if err != nil {
		return failure.Parse(schema.stage, err)
	}
	if !json.Valid([]byte(body)) {
		return failure.Parse(schema.stage, errors.New("malformed JSON object"))
	}

	result, err := schema.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return failure.Parse(schema.stage, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return failure.Validation(schema.stage, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return failure.Parse(schema.stage, err)
	}
	return nil
}

// #endregion
