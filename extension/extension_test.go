package extension

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/model/prior"
	"github.com/viant/x"
)

type Isothermal struct {
	EinsteinRadius float64 `json:"einsteinRadius"`
	Axis           float64 `json:"axis"`
}

func TestComponents(t *testing.T) {
	components := NewComponents(x.NewType(reflect.TypeOf(Isothermal{}), x.WithName("Isothermal")))
	components.Register("isothermal", func() *model.Node {
		return model.NewComponent().
			Put("einsteinRadius", model.Free(prior.NewUniform(0.0, 4.0))).
			Put("axis", model.Free(prior.NewUniform(0.0, 1.0)))
	})

	first, err := components.Build("isothermal")
	assert.Nil(t, err)
	second, err := components.Build("isothermal")
	assert.Nil(t, err)
	// builders return independent trees
	assert.NotSame(t, first, second)
	assert.Equal(t, []string{"einsteinRadius", "axis"}, first.ChildNames())

	_, err = components.Build("nfw")
	assert.NotNil(t, err)
	assert.Equal(t, []string{"isothermal"}, components.Names())
}

func TestTypes_Lookup(t *testing.T) {
	types := NewTypes()
	types.Register(x.NewType(reflect.TypeOf(Isothermal{}), x.WithName("Isothermal")))

	xType := types.Lookup("Isothermal")
	if assert.NotNil(t, xType) {
		assert.Equal(t, reflect.TypeOf(Isothermal{}), xType.Type)
	}

	sliceType := types.Lookup("[]Isothermal")
	if assert.NotNil(t, sliceType) {
		assert.Equal(t, reflect.Slice, sliceType.Type.Kind())
	}

	assert.Nil(t, types.Lookup("Unknown"))
}

func TestMaterializer(t *testing.T) {
	types := NewTypes()
	types.Register(x.NewType(reflect.TypeOf(Isothermal{}), x.WithName("Isothermal")))
	materializer := NewMaterializer(types)

	instance := model.Instance{
		"lens.mass.einsteinRadius": 1.6,
		"lens.mass.axis":           0.8,
		"source.light.intensity":   2.0,
	}
	value, err := materializer.Materialize(instance, model.ParsePath("lens.mass"), "Isothermal")
	assert.Nil(t, err)
	mass, ok := value.(*Isothermal)
	if assert.True(t, ok) {
		assert.InDelta(t, 1.6, mass.EinsteinRadius, 1e-9)
		assert.InDelta(t, 0.8, mass.Axis, 1e-9)
	}

	_, err = materializer.Materialize(instance, model.ParsePath("lens.mass"), "Unknown")
	assert.NotNil(t, err)

	_, err = materializer.Materialize(instance, model.ParsePath("subhalo"), "Isothermal")
	assert.NotNil(t, err)
}
