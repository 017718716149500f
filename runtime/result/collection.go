package result

import "fmt"

// Collection is the append-only ordered sequence of stage results produced by
// one orchestration run.  Entries never change after being appended; later
// stages may reference any earlier entry, not just the immediately preceding
// one.
type Collection struct {
	results []*Result
}

// NewCollection creates an empty collection.
func NewCollection() *Collection { return &Collection{} }

// Add appends a result.
func (c *Collection) Add(result *Result) {
	c.results = append(c.results, result)
}

// Len returns the number of results.
func (c *Collection) Len() int { return len(c.results) }

// Last returns the most recently appended result, or nil when empty.
func (c *Collection) Last() *Result {
	if len(c.results) == 0 {
		return nil
	}
	return c.results[len(c.results)-1]
}

// At returns the i-th result.  Referencing an index that does not yet exist
// is a programmer error surfaced before any fitting starts.
func (c *Collection) At(i int) (*Result, error) {
	if i < 0 || i >= len(c.results) {
		return nil, fmt.Errorf("result: index %v out of range, collection has %v entries", i, len(c.results))
	}
	return c.results[i], nil
}

// ByStage returns the result of the named stage, or an error when the stage
// has not completed yet.
func (c *Collection) ByStage(name string) (*Result, error) {
	for _, candidate := range c.results {
		if candidate.Stage() == name {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("result: no completed stage %q", name)
}

// Replace swaps the i-th entry for an extended copy of itself (e.g. with a
// hyper result attached).  The replacement must carry the same stage name -
// results are otherwise immutable.
func (c *Collection) Replace(i int, replacement *Result) error {
	current, err := c.At(i)
	if err != nil {
		return err
	}
	if current.Stage() != replacement.Stage() {
		return fmt.Errorf("result: cannot replace stage %q with %q", current.Stage(), replacement.Stage())
	}
	c.results[i] = replacement
	return nil
}
