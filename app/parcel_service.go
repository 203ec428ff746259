package app

import (
	"context"

	"assessr/domain/assessment"
	"assessr/ports"
)

// ParcelDetail is a parcel with its recent valuation history
type ParcelDetail struct {
	Parcel     assessment.Parcel      `json:"parcel"`
	Valuations []assessment.Valuation `json:"valuations"`
}

// ParcelService serves parcel lookups
type ParcelService struct {
	parcels ports.ParcelRepository
}

// NewParcelService creates a parcel service
func NewParcelService(parcels ports.ParcelRepository) *ParcelService {
	return &ParcelService{parcels: parcels}
}

// Search finds parcels by number, address or owner
func (s *ParcelService) Search(ctx context.Context, q assessment.ParcelQuery) ([]assessment.Parcel, error) {
	return s.parcels.Search(ctx, q)
}

// Get loads a parcel and its last five valuations
func (s *ParcelService) Get(ctx context.Context, id string) (*ParcelDetail, error) {
	parcel, err := s.parcels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vals, err := s.parcels.Valuations(ctx, id, 5)
	if err != nil {
		return nil, err
	}
	if vals == nil {
		vals = []assessment.Valuation{}
	}
	return &ParcelDetail{Parcel: *parcel, Valuations: vals}, nil
}
