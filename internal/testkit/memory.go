package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/ports"
)

// InMemoryRatioRepository serves ratio rows from memory, applying the same
// filters as the Postgres view
type InMemoryRatioRepository struct {
	mu   sync.RWMutex
	rows []assessment.RatioRow
}

var _ ports.RatioRepository = (*InMemoryRatioRepository)(nil)

// NewInMemoryRatioRepository creates a repository over rows
func NewInMemoryRatioRepository(rows []assessment.RatioRow) *InMemoryRatioRepository {
	return &InMemoryRatioRepository{rows: rows}
}

// Add appends rows
func (r *InMemoryRatioRepository) Add(rows ...assessment.RatioRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
}

// ListRatioRows implements ports.RatioRepository. Rows without a ratio count
// as invalid sales.
func (r *InMemoryRatioRepository) ListRatioRows(ctx context.Context, f assessment.RatioFilter) ([]assessment.RatioRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	hoods := make(map[string]bool, len(f.Neighborhoods))
	for _, n := range f.Neighborhoods {
		hoods[n] = true
	}

	var out []assessment.RatioRow
	for _, row := range r.rows {
		switch {
		case f.TaxYear > 0 && row.TaxYear != f.TaxYear:
		case f.SaleDateFrom != nil && row.SaleDate.Before(*f.SaleDateFrom):
		case f.SaleDateTo != nil && row.SaleDate.After(*f.SaleDateTo):
		case len(hoods) > 0 && !hoods[row.Neighborhood.V]:
		case f.PropertyClass != "" && row.PropertyClass.V != f.PropertyClass:
		case !f.IncludeInvalid && !row.Ratio.Valid:
		default:
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.Before(out[j].SaleDate) })
	return out, nil
}

// InMemoryFeatureRepository serves parcel features from memory
type InMemoryFeatureRepository struct {
	mu       sync.RWMutex
	features map[string]assessment.ParcelFeatures
}

var _ ports.FeatureRepository = (*InMemoryFeatureRepository)(nil)

// NewInMemoryFeatureRepository creates a repository over features
func NewInMemoryFeatureRepository(features []assessment.ParcelFeatures) *InMemoryFeatureRepository {
	m := make(map[string]assessment.ParcelFeatures, len(features))
	for _, f := range features {
		m[f.ParcelID] = f
	}
	return &InMemoryFeatureRepository{features: m}
}

// GetFeatures implements ports.FeatureRepository
func (r *InMemoryFeatureRepository) GetFeatures(ctx context.Context, parcelID string) (*assessment.ParcelFeatures, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.features[parcelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrParcelNotFound, parcelID)
	}
	return &f, nil
}

// ListCandidates implements ports.FeatureRepository, newest sale first
func (r *InMemoryFeatureRepository) ListCandidates(ctx context.Context, filter assessment.CandidateFilter) ([]assessment.ParcelFeatures, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []assessment.ParcelFeatures
	for _, f := range r.features {
		switch {
		case !f.SaleDate.Valid:
		case f.ParcelID == filter.ExcludeParcelID:
		case !filter.SoldAfter.IsZero() && f.SaleDate.V.Before(filter.SoldAfter):
		case filter.PropertyClass != "" && f.PropertyClass.V != filter.PropertyClass:
		case filter.Neighborhood != "" && f.Neighborhood.V != filter.Neighborhood:
		default:
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SaleDate.V.Equal(out[j].SaleDate.V) {
			return out[i].SaleDate.V.After(out[j].SaleDate.V)
		}
		return out[i].ParcelID < out[j].ParcelID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
