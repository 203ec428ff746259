package testkit

import (
	"context"

	"assessr/domain/assessment"
	"assessr/domain/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockRatioRepository is a testify mock of ports.RatioRepository
type MockRatioRepository struct {
	mock.Mock
}

func (m *MockRatioRepository) ListRatioRows(ctx context.Context, filter assessment.RatioFilter) ([]assessment.RatioRow, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]assessment.RatioRow)
	return rows, args.Error(1)
}

// MockParcelRepository is a testify mock of ports.ParcelRepository
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) Search(ctx context.Context, q assessment.ParcelQuery) ([]assessment.Parcel, error) {
	args := m.Called(ctx, q)
	parcels, _ := args.Get(0).([]assessment.Parcel)
	return parcels, args.Error(1)
}

func (m *MockParcelRepository) GetByID(ctx context.Context, id string) (*assessment.Parcel, error) {
	args := m.Called(ctx, id)
	parcel, _ := args.Get(0).(*assessment.Parcel)
	return parcel, args.Error(1)
}

func (m *MockParcelRepository) Valuations(ctx context.Context, parcelID string, limit int) ([]assessment.Valuation, error) {
	args := m.Called(ctx, parcelID, limit)
	vals, _ := args.Get(0).([]assessment.Valuation)
	return vals, args.Error(1)
}

// MockAppealRepository is a testify mock of ports.AppealRepository
type MockAppealRepository struct {
	mock.Mock
}

func (m *MockAppealRepository) Create(ctx context.Context, appeal *assessment.Appeal) error {
	args := m.Called(ctx, appeal)
	return args.Error(0)
}

func (m *MockAppealRepository) GetByID(ctx context.Context, id core.ID) (*assessment.Appeal, error) {
	args := m.Called(ctx, id)
	appeal, _ := args.Get(0).(*assessment.Appeal)
	return appeal, args.Error(1)
}

func (m *MockAppealRepository) ListByParcel(ctx context.Context, parcelID string) ([]assessment.Appeal, error) {
	args := m.Called(ctx, parcelID)
	appeals, _ := args.Get(0).([]assessment.Appeal)
	return appeals, args.Error(1)
}

func (m *MockAppealRepository) UpdateStatus(ctx context.Context, id core.ID, status assessment.AppealStatus, finalValue decimal.NullDecimal) error {
	args := m.Called(ctx, id, status, finalValue)
	return args.Error(0)
}

func (m *MockAppealRepository) Delete(ctx context.Context, id core.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
