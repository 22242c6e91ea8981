package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
)

const (
	groupByCategory = "category"
	groupByCostType = "cost_type"

	exportBatchSize = 500
)

// reportService computes movement totals inside the store.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// scopedMovements starts a fresh query over the owner's movements matching filter.
func scopedMovements(ctx context.Context, db *gorm.DB, ownerID string, filter MovementFilter) *gorm.DB {
	q := db.WithContext(ctx).Model(&models.Movement{}).Where("owner_id = ?", ownerID)
	return applyMovementFilters(q, filter)
}

func applyMovementFilters(q *gorm.DB, f MovementFilter) *gorm.DB {
	if f.DateFrom != nil {
		q = q.Where("date >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", f.DateTo.UTC())
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.CostType != nil {
		q = q.Where("cost_type = ?", *f.CostType)
	}
	if f.IncomeCategory != nil {
		q = q.Where("income_category = ?", *f.IncomeCategory)
	}
	if f.PaymentMethod != nil {
		q = q.Where("payment_method = ?", *f.PaymentMethod)
	}
	if f.Direction != nil {
		q = q.Where("direction = ?", *f.Direction)
	}
	if f.Search != "" {
		q = q.Where(`LOWER(description) LIKE ? ESCAPE '\'`, containsPattern(f.Search))
	}
	return q
}

// containsPattern builds a case-insensitive LIKE pattern matching s anywhere,
// with LIKE wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

const sumByDirection = "COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0)"

// Summarize totals incomes and expenses over every movement matching filter.
func (s *reportService) Summarize(ctx context.Context, ownerID string, filter MovementFilter) (*MovementSummary, error) {
	var row struct {
		TotalIncome  decimal.Decimal
		TotalExpense decimal.Decimal
		TotalCount   int64
	}
	err := scopedMovements(ctx, s.db, ownerID, filter).
		Select(sumByDirection+" AS total_income, "+sumByDirection+" AS total_expense, COUNT(*) AS total_count",
			models.DirectionIncome, models.DirectionExpense).
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income, expense := row.TotalIncome.Round(2), row.TotalExpense.Round(2)
	return &MovementSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		TotalCount:   row.TotalCount,
	}, nil
}

// CategoryBreakdown groups the filtered movements by business category.
func (s *reportService) CategoryBreakdown(ctx context.Context, ownerID string, filter MovementFilter) ([]BreakdownRow, error) {
	return s.breakdown(ctx, ownerID, filter, groupByCategory)
}

// CostTypeBreakdown groups the filtered movements by cost type.
func (s *reportService) CostTypeBreakdown(ctx context.Context, ownerID string, filter MovementFilter) ([]BreakdownRow, error) {
	return s.breakdown(ctx, ownerID, filter, groupByCostType)
}

// breakdown emits one row per distinct value of column, including a nil-key
// row for movements without a value, so row counts add up to the filtered total.
func (s *reportService) breakdown(ctx context.Context, ownerID string, filter MovementFilter, column string) ([]BreakdownRow, error) {
	var rows []struct {
		GroupKey      *string
		Income        decimal.Decimal
		Expense       decimal.Decimal
		MovementCount int64
	}
	err := scopedMovements(ctx, s.db, ownerID, filter).
		Select(column+" AS group_key, "+sumByDirection+" AS income, "+sumByDirection+" AS expense, COUNT(*) AS movement_count",
			models.DirectionIncome, models.DirectionExpense).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]BreakdownRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, BreakdownRow{
			Key:     r.GroupKey,
			Income:  r.Income.Round(2),
			Expense: r.Expense.Round(2),
			Count:   r.MovementCount,
		})
	}
	return result, nil
}

var movementSheetHeader = []interface{}{
	"Date", "Direction", "Description", "Amount", "Payment method",
	"Category", "Cost type", "Income category", "Voucher", "Notes",
}

// ExportWorkbook writes an XLSX report of the filtered movements: the
// movements themselves, the summary and both breakdowns.
func (s *reportService) ExportWorkbook(ctx context.Context, ownerID string, filter MovementFilter, w io.Writer) error {
	summary, err := s.Summarize(ctx, ownerID, filter)
	if err != nil {
		return err
	}
	byCategory, err := s.CategoryBreakdown(ctx, ownerID, filter)
	if err != nil {
		return err
	}
	byCostType, err := s.CostTypeBreakdown(ctx, ownerID, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", "Movements"); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.writeMovementSheet(ctx, f, ownerID, filter); err != nil {
		return err
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summaryRows := [][]interface{}{
		{"Total income", summary.TotalIncome.InexactFloat64()},
		{"Total expense", summary.TotalExpense.InexactFloat64()},
		{"Balance", summary.Balance.InexactFloat64()},
		{"Movements", summary.TotalCount},
	}
	if err := writeRows(f, "Summary", summaryRows); err != nil {
		return err
	}

	breakdowns := []struct {
		sheet string
		rows  []BreakdownRow
	}{
		{"By category", byCategory},
		{"By cost type", byCostType},
	}
	for _, b := range breakdowns {
		sheet, rows := b.sheet, b.rows
		if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		table := [][]interface{}{{"Key", "Income", "Expense", "Count"}}
		for _, r := range rows {
			key := "unclassified"
			if r.Key != nil {
				key = *r.Key
			}
			table = append(table, []interface{}{key, r.Income.InexactFloat64(), r.Expense.InexactFloat64(), r.Count})
		}
		if err := writeRows(f, sheet, table); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// writeMovementSheet streams the filtered movements in batches so the export
// never holds the whole result set as models.
func (s *reportService) writeMovementSheet(ctx context.Context, f *excelize.File, ownerID string, filter MovementFilter) error {
	sw, err := f.NewStreamWriter("Movements")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := sw.SetRow("A1", movementSheetHeader); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rowNo := 2
	for offset := 0; ; offset += exportBatchSize {
		var batch []models.Movement
		err := scopedMovements(ctx, s.db, ownerID, filter).
			Order("date DESC, created_at DESC, id DESC").
			Offset(offset).
			Limit(exportBatchSize).
			Find(&batch).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, m := range batch {
			cell, err := excelize.CoordinatesToCellName(1, rowNo)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := sw.SetRow(cell, movementRow(m)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			rowNo++
		}
		if len(batch) < exportBatchSize {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func movementRow(m models.Movement) []interface{} {
	return []interface{}{
		m.Date.Format("2006-01-02"),
		string(m.Direction),
		m.Description,
		m.Amount.InexactFloat64(),
		string(m.PaymentMethod),
		derefString(m.Category),
		derefString(m.CostType),
		derefString(m.IncomeCategory),
		m.Voucher,
		m.Notes,
	}
}

func derefString[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("sheet %s: %w", sheet, err))
		}
	}
	return nil
}
