package sensitivity

import (
	"strconv"
	"strings"

	"github.com/viant/chainfit/model"
	"github.com/viant/chainfit/runtime/result"
)

// Axis is one dimension of the sensitivity grid: a free perturbation
// parameter and the bin-midpoint values it takes.
type Axis struct {
	Path   model.Path
	Values []float64
}

// Cell is one grid point.  Base holds the fit of the science model alone,
// Perturbed the fit with the perturbation component free; Err is set when the
// cell failed, leaving the rest of the grid intact.
type Cell struct {
	Index     []int
	Values    model.Instance
	Base      *result.Result
	Perturbed *result.Result
	Err       error
}

// Label renders the cell index as a stable artifact-path fragment.
func (c *Cell) Label() string {
	parts := make([]string, len(c.Index))
	for i, v := range c.Index {
		parts[i] = strconv.Itoa(v)
	}
	return "cell_" + strings.Join(parts, "_")
}

// LogEvidenceDifference returns perturbed minus base log evidence, or nil
// when the cell failed or either fit has undefined evidence.
func (c *Cell) LogEvidenceDifference() *float64 {
	if c.Err != nil || c.Base == nil || c.Perturbed == nil {
		return nil
	}
	base, perturbed := c.Base.LogEvidence(), c.Perturbed.LogEvidence()
	if base == nil || perturbed == nil {
		return nil
	}
	diff := *perturbed - *base
	return &diff
}

// Grid is the completed sensitivity map: one cell per combination of axis
// values, in row-major axis order.
type Grid struct {
	Axes  []Axis
	Steps int
	Cells []*Cell
}

// Cell returns the cell at the supplied per-axis index.
func (g *Grid) Cell(index ...int) *Cell {
	if len(index) != len(g.Axes) {
		return nil
	}
	flat := 0
	for _, i := range index {
		if i < 0 || i >= g.Steps {
			return nil
		}
		flat = flat*g.Steps + i
	}
	return g.Cells[flat]
}

// Differences collects the per-cell log-evidence differences in cell order.
// Cells without a defined difference contribute nil.
func (g *Grid) Differences() []*float64 {
	ret := make([]*float64, len(g.Cells))
	for i, cell := range g.Cells {
		ret[i] = cell.LogEvidenceDifference()
	}
	return ret
}
