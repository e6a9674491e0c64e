package contracttests

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaURL = "schema/response.schema.json"

//go:embed schema/response.schema.json
var responseSchemaData []byte

var (
	responseSchema     *jsonschema.Schema
	responseSchemaErr  error
	responseSchemaOnce sync.Once
)

func compiledResponseSchema() (*jsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(responseSchemaURL, bytes.NewReader(responseSchemaData)); err != nil {
			responseSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		responseSchema, responseSchemaErr = compiler.Compile(responseSchemaURL)
	})
	return responseSchema, responseSchemaErr
}

// ValidateResponseSchema checks a syscall response body against the
// response schema. Introspection methods such as screen_list_commands
// return objects and are not covered.
func ValidateResponseSchema(data []byte) error {
	schema, err := compiledResponseSchema()
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Validate(instance)
}
