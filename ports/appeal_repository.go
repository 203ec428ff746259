package ports

import (
	"context"

	"assessr/domain/assessment"
	"assessr/domain/core"

	"github.com/shopspring/decimal"
)

// AppealRepository defines storage operations for valuation appeals
type AppealRepository interface {
	Create(ctx context.Context, appeal *assessment.Appeal) error
	GetByID(ctx context.Context, id core.ID) (*assessment.Appeal, error)
	ListByParcel(ctx context.Context, parcelID string) ([]assessment.Appeal, error)
	UpdateStatus(ctx context.Context, id core.ID, status assessment.AppealStatus, finalValue decimal.NullDecimal) error
	Delete(ctx context.Context, id core.ID) error
}
