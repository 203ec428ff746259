package app

import (
	"context"
	"strings"
	"time"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal"
	"assessr/internal/errors"
	"assessr/ports"

	"github.com/shopspring/decimal"
)

// FileAppealRequest is an owner's request to contest a valuation
type FileAppealRequest struct {
	TaxYear      int                 `json:"tax_year"`
	Reason       string              `json:"reason"`
	OwnerOpinion decimal.NullDecimal `json:"owner_opinion"`
}

// UpdateAppealRequest moves an appeal through its lifecycle
type UpdateAppealRequest struct {
	Status     assessment.AppealStatus `json:"status"`
	FinalValue decimal.NullDecimal     `json:"final_value"`
}

// AppealService manages valuation appeals
type AppealService struct {
	appeals ports.AppealRepository
	parcels ports.ParcelRepository
	logger  *internal.Logger
}

// NewAppealService creates an appeal service
func NewAppealService(appeals ports.AppealRepository, parcels ports.ParcelRepository, logger *internal.Logger) *AppealService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &AppealService{appeals: appeals, parcels: parcels, logger: logger.With("AppealService")}
}

// File records a new appeal against a parcel's valuation
func (s *AppealService) File(ctx context.Context, parcelID string, req FileAppealRequest) (*assessment.Appeal, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, core.NewValidationError("reason", "is required")
	}
	if req.TaxYear < 1900 || req.TaxYear > time.Now().Year()+1 {
		return nil, core.NewValidationError("tax_year", "is out of range")
	}
	if req.OwnerOpinion.Valid && !req.OwnerOpinion.Decimal.IsPositive() {
		return nil, core.NewValidationError("owner_opinion", "must be positive")
	}

	if _, err := s.parcels.GetByID(ctx, parcelID); err != nil {
		return nil, err
	}

	appeal := assessment.NewAppeal(parcelID, req.TaxYear, reason, req.OwnerOpinion)
	if err := s.appeals.Create(ctx, appeal); err != nil {
		return nil, err
	}
	s.logger.Info("appeal %s filed for parcel %s (%d)", appeal.ID, parcelID, req.TaxYear)
	return appeal, nil
}

// List returns a parcel's appeals, newest first
func (s *AppealService) List(ctx context.Context, parcelID string) ([]assessment.Appeal, error) {
	return s.appeals.ListByParcel(ctx, parcelID)
}

// UpdateStatus applies a status change. Decided appeals are immutable, and a
// reduced appeal must carry its final value.
func (s *AppealService) UpdateStatus(ctx context.Context, id core.ID, req UpdateAppealRequest) (*assessment.Appeal, error) {
	if !req.Status.Valid() {
		return nil, core.NewValidationError("status", "unknown status "+string(req.Status))
	}
	if req.Status == assessment.AppealReduced && !req.FinalValue.Valid {
		return nil, core.NewValidationError("final_value", "is required when reducing a value")
	}
	if req.Status != assessment.AppealReduced && req.Status != assessment.AppealSustained {
		req.FinalValue = decimal.NullDecimal{}
	}

	existing, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.Closed() {
		return nil, core.ErrAppealClosed
	}

	if err := s.appeals.UpdateStatus(ctx, id, req.Status, req.FinalValue); err != nil {
		return nil, errors.Wrap(err, "failed to update appeal")
	}
	s.logger.Info("appeal %s moved from %s to %s", id, existing.Status, req.Status)
	return s.appeals.GetByID(ctx, id)
}

// Delete removes an appeal that has not been scheduled yet
func (s *AppealService) Delete(ctx context.Context, id core.ID) error {
	existing, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != assessment.AppealFiled {
		return core.NewValidationError("status", "only filed appeals can be deleted, withdraw it instead")
	}
	return s.appeals.Delete(ctx, id)
}
