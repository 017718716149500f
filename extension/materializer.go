package extension

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/chainfit/model"
	"github.com/viant/structology/conv"
)

// Materializer converts a flat fitted instance into typed parameter structs
// registered with the type registry, so analyses work with domain objects
// rather than path-keyed maps.
type Materializer struct {
	types     *Types
	converter *conv.Converter
}

// Materialize builds a new value of the named registered type from the
// instance entries under the supplied component path.
func (m *Materializer) Materialize(instance model.Instance, component model.Path, typeName string) (interface{}, error) {
	xType := m.types.Lookup(typeName)
	if xType == nil {
		return nil, fmt.Errorf("extension: unknown type %q", typeName)
	}
	source := nest(instance, component)
	if len(source) == 0 {
		return nil, fmt.Errorf("extension: instance has no values under %q", component.String())
	}
	value := reflect.New(xType.Type).Interface()
	if err := m.converter.Convert(source, value); err != nil {
		return nil, fmt.Errorf("extension: cannot materialize %q as %v: %w", component.String(), typeName, err)
	}
	return value, nil
}

// nest rebuilds the nested map rooted at prefix from the flat dotted keys of
// an instance.
func nest(instance model.Instance, prefix model.Path) map[string]interface{} {
	ret := map[string]interface{}{}
	prefixText := prefix.String()
	for key, value := range instance {
		if prefixText != "" {
			if !strings.HasPrefix(key, prefixText+".") {
				continue
			}
			key = key[len(prefixText)+1:]
		}
		segments := strings.Split(key, ".")
		target := ret
		for i := 0; i < len(segments)-1; i++ {
			child, ok := target[segments[i]].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				target[segments[i]] = child
			}
			target = child
		}
		target[segments[len(segments)-1]] = value
	}
	return ret
}

// NewMaterializer creates a materializer over the supplied type registry.
func NewMaterializer(types *Types) *Materializer {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true
	return &Materializer{
		types:     types,
		converter: conv.NewConverter(options),
	}
}
