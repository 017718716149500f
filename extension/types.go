package extension

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/x"
)

// Types is the registry of Go struct types backing model components, so a
// fitted instance can be materialised into typed parameter objects.
type Types struct {
	x.Registry
	pkgAliases map[string]string
}

// Register adds a data type to the registry
func (t *Types) Register(dataType *x.Type) {
	if dataType.PkgPath != "" {
		if idx := strings.LastIndex(dataType.PkgPath, "/"); idx > 0 {
			pkgPath := dataType.PkgPath
			alias := pkgPath[idx+1:]
			if _, ok := t.pkgAliases[alias]; !ok {
				t.pkgAliases[alias] = pkgPath
			}
		}
	}
	t.Registry.Register(dataType)
}

// Lookup returns a data type from the registry; a []/map[string] prefix on
// the name yields the corresponding derived type.
func (t *Types) Lookup(dataType string) *x.Type {
	typeModifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		typeModifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}

	if idx := strings.LastIndex(dataType, "."); idx != -1 {
		pkg := dataType[:idx]
		typeName := dataType[idx+1:]
		if pkgPath, ok := t.pkgAliases[pkg]; ok {
			pkg = pkgPath
		}
		dataType = fmt.Sprintf("%s.%s", pkg, typeName)
	}
	ret := t.Registry.Lookup(dataType)
	if ret == nil {
		return nil
	}
	rType := ret.Type

	switch strings.TrimSpace(typeModifier) {
	case "[]":
		rType = reflect.SliceOf(rType)
	case "map[string]":
		rType = reflect.MapOf(reflect.TypeOf(""), rType)
	}
	if rType != ret.Type {
		return x.NewType(rType)
	}
	return ret
}

// NewTypes creates a new types registry
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{
		Registry:   *x.NewRegistry(options...),
		pkgAliases: map[string]string{},
	}
}
