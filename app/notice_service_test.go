package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal/testkit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func valuation(year int, land, improvements int64) assessment.Valuation {
	return assessment.Valuation{
		ParcelID:         "p1",
		TaxYear:          year,
		LandValue:        decimal.NewFromInt(land),
		ImprovementValue: decimal.NewFromInt(improvements),
		TotalValue:       decimal.NewFromInt(land + improvements),
	}
}

func TestNoticeService_Render(t *testing.T) {
	parcels := new(testkit.MockParcelRepository)
	parcels.On("GetByID", mock.Anything, "p1").Return(&assessment.Parcel{
		ID:             "p1",
		ParcelNumber:   "12-345-678",
		SitusAddress:   "10 Main St",
		OwnerName:      "Pat <script>alert(1)</script> Doe",
		MailingAddress: sql.Null[string]{V: "PO Box 9", Valid: true},
	}, nil)
	parcels.On("Valuations", mock.Anything, "p1", valuationHistory).Return([]assessment.Valuation{
		valuation(2025, 100000, 250000),
		valuation(2024, 90000, 210000),
		valuation(2023, 85000, 200000),
	}, nil)

	svc := NewNoticeService(parcels, nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }

	notice, err := svc.Render(context.Background(), "p1", 0)
	require.NoError(t, err)

	assert.Equal(t, 2025, notice.TaxYear)
	require.NotNil(t, notice.Prior)
	assert.Equal(t, 2024, notice.Prior.TaxYear)
	assert.Contains(t, notice.Markdown, "| **Total** | $300,000 | $350,000 | +$50,000 |")
	assert.Contains(t, notice.Markdown, "**+16.7%**")
	assert.Contains(t, notice.HTML, "<table>")
	assert.Contains(t, notice.HTML, "Notice of Assessed Value")
	assert.NotContains(t, notice.HTML, "<script>")
	parcels.AssertExpectations(t)
}

func TestNoticeService_RenderYear(t *testing.T) {
	parcels := new(testkit.MockParcelRepository)
	parcels.On("GetByID", mock.Anything, "p1").Return(&assessment.Parcel{ID: "p1", ParcelNumber: "1"}, nil)
	parcels.On("Valuations", mock.Anything, "p1", valuationHistory).Return([]assessment.Valuation{
		valuation(2025, 100000, 250000),
		valuation(2023, 120000, 260000),
	}, nil)
	svc := NewNoticeService(parcels, nil)

	notice, err := svc.Render(context.Background(), "p1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 2023, notice.Prior.TaxYear, "a gap year falls back to the next older valuation")
	assert.Contains(t, notice.Markdown, "-$30,000")
	assert.Contains(t, notice.Markdown, "**-7.9%**")

	notice, err = svc.Render(context.Background(), "p1", 2023)
	require.NoError(t, err)
	assert.Nil(t, notice.Prior)
	assert.Contains(t, notice.Markdown, "| **Total** | | $380,000 | |")

	_, err = svc.Render(context.Background(), "p1", 2019)
	assert.ErrorIs(t, err, core.ErrValuationNotFound)
}

func TestNoticeService_ParcelNotFound(t *testing.T) {
	parcels := new(testkit.MockParcelRepository)
	parcels.On("GetByID", mock.Anything, "nope").Return(nil, core.ErrParcelNotFound)
	svc := NewNoticeService(parcels, nil)

	_, err := svc.Render(context.Background(), "nope", 0)
	assert.ErrorIs(t, err, core.ErrParcelNotFound)
	parcels.AssertNotCalled(t, "Valuations", mock.Anything, mock.Anything, mock.Anything)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0", formatMoney(decimal.Zero))
	assert.Equal(t, "$999", formatMoney(decimal.NewFromInt(999)))
	assert.Equal(t, "$1,000", formatMoney(decimal.NewFromInt(1000)))
	assert.Equal(t, "$1,234,568", formatMoney(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "-$12,000", formatMoney(decimal.NewFromInt(-12000)))
}
