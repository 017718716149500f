package dao

// Parameter is a named list filter, e.g. NewParameter("stage", "source").
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Matches reports whether the supplied value satisfies the filter.
func (p *Parameter) Matches(value string) bool {
	switch actual := p.Value.(type) {
	case string:
		return actual == value
	case []string:
		for _, candidate := range actual {
			if candidate == value {
				return true
			}
		}
	}
	return false
}
