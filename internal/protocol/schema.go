package protocol

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const cmdSchemaURL = "https://leafgame.local/schemas/cmd.schema.json"

//go:embed schemas/cmd.schema.json
var cmdSchemaJSON string

var cmdSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(cmdSchemaURL, strings.NewReader(cmdSchemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(cmdSchemaURL)
})

// ValidateCmd checks a raw CMD frame against the embedded schema.
func ValidateCmd(raw []byte) error {
	s, err := cmdSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
