package ports

import (
	"context"

	"assessr/domain/assessment"
)

// RatioRepository reads sales ratio rows for ratio studies
type RatioRepository interface {
	ListRatioRows(ctx context.Context, filter assessment.RatioFilter) ([]assessment.RatioRow, error)
}
