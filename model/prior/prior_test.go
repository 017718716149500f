package prior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniform_Quantile(t *testing.T) {
	p := NewUniform(10, 20)
	assert.Nil(t, p.Validate())
	assert.InDelta(t, 15.0, p.Quantile(0.5), 1e-9)
	assert.InDelta(t, 10.0, p.Quantile(0.0), 1e-6)
	assert.InDelta(t, 20.0, p.Quantile(1.0), 1e-6)
}

func TestLogUniform_Quantile(t *testing.T) {
	p := NewLogUniform(1, 100)
	assert.Nil(t, p.Validate())
	assert.InDelta(t, 10.0, p.Quantile(0.5), 1e-6)
}

func TestGaussian_Quantile(t *testing.T) {
	p := NewGaussian(5, 2)
	assert.Nil(t, p.Validate())
	assert.InDelta(t, 5.0, p.Quantile(0.5), 1e-9)
	// One sigma above the mean corresponds to the 84.13th percentile.
	assert.InDelta(t, 7.0, p.Quantile(0.8413447), 1e-3)
}

func TestGaussian_Truncation(t *testing.T) {
	p := NewBoundedGaussian(0, 1, -0.5, 0.5)
	assert.Equal(t, 0.5, p.Quantile(0.999999))
	assert.Equal(t, -0.5, p.Quantile(0.000001))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		description string
		prior       Prior
		valid       bool
	}{
		{description: "inverted uniform", prior: NewUniform(2, 1), valid: false},
		{description: "negative logUniform lower", prior: NewLogUniform(-1, 10), valid: false},
		{description: "zero sigma", prior: NewGaussian(0, 0), valid: false},
		{description: "valid gaussian", prior: NewGaussian(0, 1), valid: true},
	}
	for _, testCase := range testCases {
		err := testCase.prior.Validate()
		if testCase.valid {
			assert.Nil(t, err, testCase.description)
		} else {
			assert.NotNil(t, err, testCase.description)
		}
	}
}

func TestGaussian_Unbounded(t *testing.T) {
	p := NewGaussian(0, 1)
	lower, upper := p.Bounds()
	assert.True(t, math.IsInf(lower, -1))
	assert.True(t, math.IsInf(upper, 1))
}
