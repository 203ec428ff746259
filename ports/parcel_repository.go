package ports

import (
	"context"

	"assessr/domain/assessment"
)

// ParcelRepository defines read access to parcels and their valuations
type ParcelRepository interface {
	Search(ctx context.Context, q assessment.ParcelQuery) ([]assessment.Parcel, error)
	GetByID(ctx context.Context, id string) (*assessment.Parcel, error)

	// Valuations returns a parcel's certified values, newest tax year first
	Valuations(ctx context.Context, parcelID string, limit int) ([]assessment.Valuation, error)
}

// FeatureRepository loads parcel characteristics for comparable-sales scoring
type FeatureRepository interface {
	GetFeatures(ctx context.Context, parcelID string) (*assessment.ParcelFeatures, error)
	ListCandidates(ctx context.Context, filter assessment.CandidateFilter) ([]assessment.ParcelFeatures, error)
}
