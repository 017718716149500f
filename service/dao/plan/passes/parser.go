// Package passes parses the declarative prior-passing rules of a plan stage.
// A rule has the form: path[kind](stage), where kind is one of model,
// instance or unfix=<spread>, and stage names an earlier stage whose result
// the rule draws from, e.g. lens.mass[model](source).
package passes

import (
	"fmt"
	"strings"

	"github.com/viant/chainfit/model"
	"github.com/viant/parsly"
	"github.com/viant/toolbox"
)

// Kind discriminates how a rule propagates a component.
type Kind string

const (
	// KindModel passes posterior-derived gaussian priors
	KindModel = Kind("model")
	// KindInstance passes fixed maximum-likelihood values
	KindInstance = Kind("instance")
	// KindUnfix passes as model but re-frees fixed parameters
	KindUnfix = Kind("unfix")
)

// Rule is one parsed prior-passing rule.
type Rule struct {
	// Path addresses the component or parameter being passed
	Path model.Path

	// Kind selects the passing mode
	Kind Kind

	// Spread is the gaussian sigma of re-freed parameters; unfix only
	Spread float64

	// Stage names the source stage of the pass
	Stage string
}

// Validate checks the rule against the set of stages declared before it.
func (r *Rule) Validate(priorStages map[string]bool) error {
	if len(r.Path) == 0 {
		return fmt.Errorf("passes: rule has no path")
	}
	if r.Stage == "" {
		return fmt.Errorf("passes: rule %q has no source stage", r.Path.String())
	}
	if priorStages != nil && !priorStages[r.Stage] {
		return fmt.Errorf("passes: rule %q references unknown stage %q", r.Path.String(), r.Stage)
	}
	if r.Kind == KindUnfix && r.Spread <= 0 {
		return fmt.Errorf("passes: rule %q has non-positive unfix spread", r.Path.String())
	}
	return nil
}

// Parse parses a pass rule in the format: path[kind](stage)
func Parse(input []byte) (*Rule, error) {
	cursor := parsly.NewCursor("", input, 0)
	rule := &Rule{}

	// Match the parameter path
	matched := cursor.MatchAfterOptional(whitespaceToken, pathToken)
	if matched.Code != pathToken.Code {
		return nil, cursor.NewError(pathToken)
	}
	rule.Path = model.ParsePath(matched.Text(cursor))

	// Match the opening square bracket for the kind
	matched = cursor.MatchOne(openSquareBracketToken)
	if matched.Code != openSquareBracketToken.Code {
		return nil, cursor.NewError(openSquareBracketToken)
	}

	// Match the kind
	matched = cursor.MatchOne(kindToken)
	if matched.Code != kindToken.Code {
		return nil, cursor.NewError(kindToken)
	}
	if err := rule.setKind(matched.Text(cursor)); err != nil {
		return nil, err
	}

	// Match the closing square bracket
	matched = cursor.MatchOne(closeSquareBracketToken)
	if matched.Code != closeSquareBracketToken.Code {
		return nil, cursor.NewError(closeSquareBracketToken)
	}

	// Match the opening parenthesis for the source stage
	matched = cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code != openParenToken.Code {
		return nil, cursor.NewError(openParenToken)
	}

	// Match the source stage name
	matched = cursor.MatchOne(stageToken)
	if matched.Code != stageToken.Code {
		return nil, cursor.NewError(stageToken)
	}
	rule.Stage = strings.TrimSpace(matched.Text(cursor))

	// Match the closing parenthesis
	matched = cursor.MatchOne(closeParenToken)
	if matched.Code != closeParenToken.Code {
		return nil, cursor.NewError(closeParenToken)
	}
	return rule, nil
}

// setKind decodes the kind text, including the unfix=<spread> form.
func (r *Rule) setKind(text string) error {
	text = strings.TrimSpace(text)
	switch {
	case text == string(KindModel):
		r.Kind = KindModel
	case text == string(KindInstance):
		r.Kind = KindInstance
	case strings.HasPrefix(text, string(KindUnfix)+"="):
		r.Kind = KindUnfix
		spread, err := toolbox.ToFloat(text[len(KindUnfix)+1:])
		if err != nil {
			return fmt.Errorf("passes: invalid unfix spread %q: %w", text, err)
		}
		r.Spread = spread
	default:
		return fmt.Errorf("passes: unknown pass kind %q", text)
	}
	return nil
}

// ParseAll parses a stage's rule list, validating source stages against the
// stages declared before it.
func ParseAll(rules []string, priorStages map[string]bool) ([]*Rule, error) {
	ret := make([]*Rule, 0, len(rules))
	for _, text := range rules {
		rule, err := Parse([]byte(text))
		if err != nil {
			return nil, err
		}
		if err := rule.Validate(priorStages); err != nil {
			return nil, err
		}
		ret = append(ret, rule)
	}
	return ret, nil
}
