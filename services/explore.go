package services

import (
	"github.com/pkg/errors"

	"total-comp/models"
	"total-comp/utils"
)

// Exploration is everything the dashboard shows for one selection of the
// response dataset.
type Exploration struct {
	Selection     Selection            `json:"-"`
	Filters       []string             `json:"filters"`
	Summary       Summary              `json:"summary"`
	Distributions map[string][]float64 `json:"distributions"`

	table *models.Table
}

// Table returns the filtered view behind the exploration.
func (e *Exploration) Table() *models.Table { return e.table }

// Explorer runs the filter-and-summarize pipeline over the response dataset.
type Explorer struct {
	logger *utils.Logger
}

func NewExplorer(logger *utils.Logger) *Explorer {
	return &Explorer{logger: logger}
}

// Explore validates sel against t, folds it, and summarizes what remains.
// Zero remaining rows is ErrEmptyFilterResult.
func (e *Explorer) Explore(t *models.Table, sel Selection) (*Exploration, error) {
	if err := sel.Validate(t); err != nil {
		return nil, err
	}

	active := sel.Active()
	filtered := active.Apply(t)

	filters := make([]string, 0, len(active))
	for _, c := range active {
		filters = append(filters, c.String())
	}
	e.logger.Debug("[explore] %d → %d rows for %v", t.Len(), filtered.Len(), filters)

	if filtered.Empty() {
		return nil, errors.Wrapf(models.ErrEmptyFilterResult, "%v", filters)
	}

	exp := &Exploration{
		Selection:     active,
		Filters:       filters,
		Summary:       Summarize(filtered),
		Distributions: make(map[string][]float64),
		table:         filtered,
	}
	for _, col := range models.CompensationColumns {
		if _, ok := filtered.Column(col); !ok {
			continue
		}
		vals, err := Distribution(filtered, col)
		if err != nil {
			return nil, err
		}
		exp.Distributions[col] = vals
	}
	return exp, nil
}
