// Package classification enforces the direction-dependent shape of a movement.
//
// A movement is either an expense, carrying a business category and a cost
// type, or an income, carrying an income category. The two shapes are modelled
// as the Expense and Income variants of Classification; the only way to write
// those columns onto a models.Movement is Apply, which always clears the
// columns of the other variant.
package classification

import (
	"fmt"

	"cashbook/internal/models"
)

// Classification is the sealed sum of Expense and Income.
type Classification interface {
	Direction() models.Direction
	apply(m *models.Movement)
}

// Expense classifies an outgoing movement.
type Expense struct {
	Category models.MovementCategory
	CostType models.CostType
}

// Income classifies an incoming movement.
type Income struct {
	Category models.IncomeCategory
}

func (Expense) Direction() models.Direction { return models.DirectionExpense }
func (Income) Direction() models.Direction  { return models.DirectionIncome }

func (e Expense) apply(m *models.Movement) {
	category, costType := e.Category, e.CostType
	m.Direction = models.DirectionExpense
	m.Category = &category
	m.CostType = &costType
	m.IncomeCategory = nil
}

func (i Income) apply(m *models.Movement) {
	category := i.Category
	m.Direction = models.DirectionIncome
	m.IncomeCategory = &category
	m.Category = nil
	m.CostType = nil
}

// Apply writes c onto m, clearing the fields that belong to the other direction.
// Applying the same classification twice leaves m unchanged.
func Apply(m *models.Movement, c Classification) {
	c.apply(m)
}

// Of reads the classification back from a stored movement. It fails when the
// stored columns do not form exactly one valid variant.
func Of(m *models.Movement) (Classification, error) {
	switch m.Direction {
	case models.DirectionExpense:
		if m.Category == nil || m.CostType == nil || m.IncomeCategory != nil {
			return nil, fmt.Errorf("movement %s: expense must carry category and cost type only", m.ID)
		}
		return Expense{Category: *m.Category, CostType: *m.CostType}, nil
	case models.DirectionIncome:
		if m.IncomeCategory == nil || m.Category != nil || m.CostType != nil {
			return nil, fmt.Errorf("movement %s: income must carry income category only", m.ID)
		}
		return Income{Category: *m.IncomeCategory}, nil
	}
	return nil, fmt.Errorf("movement %s: unknown direction %q", m.ID, m.Direction)
}
