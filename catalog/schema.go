package catalog

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the catalog document contract into a JSON schema that
// content tooling can validate authored files against before they ship.
func BuildSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.ReflectFromType(reflect.TypeOf(Document{}))
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect catalog document schema")
	}
	schema.Title = "Cardclash Effect Catalog"
	schema.Description = "Designer-authored symbol definitions consumed by the combat runtime."
	return schema, nil
}
