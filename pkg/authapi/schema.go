package authapi

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const sessionSchemaURL = "socium://authapi/session.json"

// sessionSchema is the minimum contract the client relies on; the collaborator may send more.
const sessionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["user"],
  "properties": {
    "user": {
      "type": "object",
      "required": ["id", "email"],
      "properties": {
        "id": {"type": "integer", "minimum": 1},
        "email": {"type": "string", "minLength": 3},
        "name": {"type": ["string", "null"]}
      }
    },
    "access_token": {"type": "string"},
    "refresh_token": {"type": "string"}
  }
}`

func compileSessionSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(sessionSchemaURL, strings.NewReader(sessionSchema)); err != nil {
		return nil, fmt.Errorf("failed to load auth session schema: %w", err)
	}

	schema, err := compiler.Compile(sessionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile auth session schema: %w", err)
	}

	return schema, nil
}
