package api

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/wricardo/boardsmith/game/engine"
)

// BoardConfigSchema describes the board configuration payload accepted by
// the validate, path, session and config endpoints.
func BoardConfigSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapEngineTypes,
	}

	schema := reflector.Reflect(&engine.BoardConfig{})
	schema.Title = "Board configuration"
	schema.Description = "Grid size, placed fields and walls of one board. Positions are [x, y] arrays with the origin in the top-left corner."
	return schema
}

// mapEngineTypes overrides the types that encode themselves as arrays or
// strings instead of objects
func mapEngineTypes(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(engine.Position{}):
		return positionSchema()
	case reflect.TypeOf(engine.Wall{}):
		return &jsonschema.Schema{
			Type:        "array",
			Description: "Wall between two adjacent cells",
			Items:       positionSchema(),
			MinItems:    uintPtr(2),
			MaxItems:    uintPtr(2),
		}
	case reflect.TypeOf(engine.Direction(0)):
		enum := make([]any, 0, 4)
		for _, d := range engine.AllDirections() {
			enum = append(enum, d.String())
		}
		return &jsonschema.Schema{Type: "string", Enum: enum}
	}
	return nil
}

func positionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: "[x, y]",
		Items:       &jsonschema.Schema{Type: "integer", Minimum: "0"},
		MinItems:    uintPtr(2),
		MaxItems:    uintPtr(2),
	}
}

func uintPtr(v uint64) *uint64 {
	return &v
}
