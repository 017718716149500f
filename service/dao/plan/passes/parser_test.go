package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/chainfit/model"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expect      *Rule
		hasError    bool
	}{
		{
			description: "model pass",
			input:       "lens.mass[model](source)",
			expect:      &Rule{Path: model.ParsePath("lens.mass"), Kind: KindModel, Stage: "source"},
		},
		{
			description: "instance pass",
			input:       "source.light[instance](source)",
			expect:      &Rule{Path: model.ParsePath("source.light"), Kind: KindInstance, Stage: "source"},
		},
		{
			description: "unfix pass with spread",
			input:       "lens.mass.sersicIndex[unfix=0.5](light)",
			expect:      &Rule{Path: model.ParsePath("lens.mass.sersicIndex"), Kind: KindUnfix, Spread: 0.5, Stage: "light"},
		},
		{
			description: "leading whitespace",
			input:       "  lens.mass[model](source)",
			expect:      &Rule{Path: model.ParsePath("lens.mass"), Kind: KindModel, Stage: "source"},
		},
		{
			description: "unknown kind",
			input:       "lens.mass[posterior](source)",
			hasError:    true,
		},
		{
			description: "missing stage",
			input:       "lens.mass[model]",
			hasError:    true,
		},
		{
			description: "missing kind",
			input:       "lens.mass(source)",
			hasError:    true,
		},
		{
			description: "malformed spread",
			input:       "lens.mass[unfix=wide](source)",
			hasError:    true,
		},
		{
			description: "empty input",
			input:       "",
			hasError:    true,
		},
	}

	for _, testCase := range testCases {
		actual, err := Parse([]byte(testCase.input))
		if testCase.hasError {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestParseAll(t *testing.T) {
	prior := map[string]bool{"source": true}
	rules, err := ParseAll([]string{
		"lens.mass[model](source)",
		"source.light[instance](source)",
	}, prior)
	assert.Nil(t, err)
	assert.Len(t, rules, 2)

	_, err = ParseAll([]string{"lens.mass[model](mass)"}, prior)
	assert.NotNil(t, err)

	_, err = ParseAll([]string{"lens.mass[unfix=0](source)"}, prior)
	assert.NotNil(t, err)
}
