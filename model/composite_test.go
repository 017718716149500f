package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model/prior"
)

func lensModel() *Composite {
	mass := NewComponent().
		Put("einsteinRadius", Free(prior.NewUniform(0.5, 2.5))).
		Put("axisRatio", Free(prior.NewUniform(0.2, 1.0))).
		Put("centre", FixedTuple(0.0, 0.0))
	light := NewComponent().
		Put("intensity", Free(prior.NewLogUniform(1e-3, 1.0))).
		Put("scale", Fixed(0.2))
	return NewComposite().
		Put("lens", NewComponent().Put("mass", mass)).
		Put("source", NewComponent().Put("light", light))
}

func TestComposite_Resolve(t *testing.T) {
	m := lensModel()
	node, err := m.Resolve(ParsePath("lens.mass.einsteinRadius"))
	assert.Nil(t, err)
	assert.Equal(t, KindFree, node.Kind())
	assert.Equal(t, prior.KindUniform, node.Prior().Kind())

	node, err = m.Resolve(ParsePath("source.light.scale"))
	assert.Nil(t, err)
	assert.Equal(t, KindFixed, node.Kind())
	assert.Equal(t, 0.2, node.Value())
}

func TestComposite_ResolveFailsLoudly(t *testing.T) {
	m := lensModel()
	_, err := m.Resolve(ParsePath("lens.mass.slope"))
	assert.NotNil(t, err)
	var pathErr *PathError
	assert.True(t, errors.As(err, &pathErr))
	assert.Equal(t, 2, pathErr.Segment)

	_, err = m.Resolve(ParsePath("cluster.mass"))
	assert.NotNil(t, err)
}

func TestComposite_FreePaths(t *testing.T) {
	m := lensModel()
	assert.Equal(t, 3, m.FreeCount())
	paths := m.FreePaths()
	assert.Equal(t, []string{
		"lens.mass.einsteinRadius",
		"lens.mass.axisRatio",
		"source.light.intensity",
	}, []string{paths[0].String(), paths[1].String(), paths[2].String()})
}

func TestComposite_Validate(t *testing.T) {
	m := lensModel()
	assert.Nil(t, m.Validate())

	allFixed := NewComposite().Put("lens", NewComponent().Put("scale", Fixed(1.0)))
	assert.True(t, errors.Is(allFixed.Validate(), ErrNoFreeParameters))

	badPrior := NewComposite().Put("lens", NewComponent().Put("radius", Free(prior.NewUniform(2, 1))))
	assert.NotNil(t, badPrior.Validate())
	assert.False(t, errors.Is(badPrior.Validate(), ErrNoFreeParameters))
}

func TestComposite_CloneIsIndependent(t *testing.T) {
	m := lensModel()
	clone := m.Clone()
	clone.Component("lens").Child("mass").Put("einsteinRadius", Fixed(1.0))
	node, err := m.Resolve(ParsePath("lens.mass.einsteinRadius"))
	assert.Nil(t, err)
	assert.Equal(t, KindFree, node.Kind())
}

func TestComposite_WithFixed(t *testing.T) {
	m := lensModel()
	fixed, err := m.WithFixed(ParsePath("lens.mass.einsteinRadius"), 1.2)
	assert.Nil(t, err)
	node, err := fixed.Resolve(ParsePath("lens.mass.einsteinRadius"))
	assert.Nil(t, err)
	assert.Equal(t, KindFixed, node.Kind())
	assert.Equal(t, 1.2, node.Value())
	assert.Equal(t, 2, fixed.FreeCount())
	// original untouched
	assert.Equal(t, 3, m.FreeCount())

	_, err = m.WithFixed(ParsePath("lens.mass.unknown"), 1.0)
	assert.NotNil(t, err)
}

func TestComposite_InstanceAt(t *testing.T) {
	m := lensModel()
	instance, err := m.InstanceAt([]float64{0.5, 0.5, 0.5})
	assert.Nil(t, err)
	value, ok := instance.At(ParsePath("lens.mass.einsteinRadius"))
	assert.True(t, ok)
	assert.InDelta(t, 1.5, value, 1e-9)
	// fixed leaves are merged in
	value, ok = instance.At(ParsePath("source.light.scale"))
	assert.True(t, ok)
	assert.Equal(t, 0.2, value)
	value, ok = instance.At(ParsePath("lens.mass.centre.0"))
	assert.True(t, ok)
	assert.Equal(t, 0.0, value)

	_, err = m.InstanceAt([]float64{0.5})
	assert.NotNil(t, err)
}

func TestPlan_Validate(t *testing.T) {
	plan := NewPlan("slam").
		WithStage(&PlanStage{Name: "source", New: map[string]string{"source.light": "gaussian"}}).
		WithStage(&PlanStage{Name: "mass", Passes: []string{"source.light[instance](source)"}})
	assert.Empty(t, plan.Validate())

	plan.Stages = append(plan.Stages, &PlanStage{Name: "source", New: map[string]string{"x": "y"}})
	issues := plan.Validate()
	assert.NotEmpty(t, issues)
}
