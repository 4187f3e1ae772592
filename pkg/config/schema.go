package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed bridge.schema.json
var bridgeSchemaJSON []byte

// SchemaID identifies the embedded bridge configuration schema.
const SchemaID = "docbridge://schemas/bridge.schema.json"

// ValidateSchema checks raw YAML config bytes against the embedded JSON
// schema. Violations are aggregated into a single *ConfigError.
func ValidateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return invalid("bridge config is not valid YAML: %v", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	schemaLoader := gojsonschema.NewBytesLoader(bridgeSchemaJSON)
	docLoader := gojsonschema.NewGoLoader(doc)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return invalid("bridge config schema validation failed: %v", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	sort.Strings(msgs)
	return invalid("bridge config violates %s: %s", SchemaID, strings.Join(msgs, "; "))
}
