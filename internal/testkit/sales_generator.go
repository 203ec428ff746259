package testkit

import (
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"time"

	"assessr/domain/assessment"

	"github.com/shopspring/decimal"
)

// SalesGeneratorConfig configures the synthetic sales generator
type SalesGeneratorConfig struct {
	Neighborhoods        []string  `json:"neighborhoods"`
	PropertyClasses      []string  `json:"property_classes"`
	SalesPerNeighborhood int       `json:"sales_per_neighborhood"`
	TaxYear              int       `json:"tax_year"`
	BaseRatio            float64   `json:"base_ratio"`
	Dispersion           float64   `json:"dispersion"`   // standard deviation of the ratio
	OutlierRate          float64   `json:"outlier_rate"` // share of sales with a wildly off ratio
	InvalidRate          float64   `json:"invalid_rate"` // share of sales missing a usable price
	MedianPrice          float64   `json:"median_price"`
	StartDate            time.Time `json:"start_date"`
	Seed                 int64     `json:"seed"`
}

// DefaultSalesConfig returns a small, well-behaved ratio study sample
func DefaultSalesConfig() SalesGeneratorConfig {
	return SalesGeneratorConfig{
		Neighborhoods:        []string{"N01", "N02", "N03"},
		PropertyClasses:      []string{"R1", "R2"},
		SalesPerNeighborhood: 40,
		TaxYear:              2024,
		BaseRatio:            0.95,
		Dispersion:           0.08,
		OutlierRate:          0.03,
		InvalidRate:          0.02,
		MedianPrice:          320000,
		StartDate:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:                 42,
	}
}

// SalesGenerator produces deterministic ratio rows and parcel features
type SalesGenerator struct {
	config SalesGeneratorConfig
	rng    *rand.Rand
}

// NewSalesGenerator creates a new generator seeded from config
func NewSalesGenerator(config SalesGeneratorConfig) *SalesGenerator {
	return &SalesGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateSales returns one ratio row per synthetic sale, ordered by
// neighborhood and sale number
func (g *SalesGenerator) GenerateSales() []assessment.RatioRow {
	rows := make([]assessment.RatioRow, 0, len(g.config.Neighborhoods)*g.config.SalesPerNeighborhood)
	for n, hood := range g.config.Neighborhoods {
		// neighborhoods drift a little around the base level
		level := g.config.BaseRatio * (1 + 0.04*float64(n-len(g.config.Neighborhoods)/2))
		for i := 0; i < g.config.SalesPerNeighborhood; i++ {
			rows = append(rows, g.sale(hood, i, level))
		}
	}
	return rows
}

func (g *SalesGenerator) sale(hood string, i int, level float64) assessment.RatioRow {
	parcelID := fmt.Sprintf("%s-%04d", hood, i+1)
	price := math.Round(g.config.MedianPrice * math.Exp(g.rng.NormFloat64()*0.35))

	ratio := level + g.rng.NormFloat64()*g.config.Dispersion
	if g.rng.Float64() < g.config.OutlierRate {
		ratio *= 3 + g.rng.Float64()*10
	}
	if ratio < 0.05 {
		ratio = 0.05
	}
	assessed := math.Round(price * ratio)

	row := assessment.RatioRow{
		SaleID:        "S-" + parcelID,
		ParcelID:      parcelID,
		TaxYear:       g.config.TaxYear,
		SaleDate:      g.config.StartDate.AddDate(0, 0, g.rng.Intn(365)),
		SalePrice:     decimal.NewNullDecimal(decimal.NewFromFloat(price)),
		AssessedValue: decimal.NewNullDecimal(decimal.NewFromFloat(assessed)),
		Ratio:         sql.Null[float64]{V: assessed / price, Valid: true},
		Neighborhood:  sql.Null[string]{V: hood, Valid: true},
	}
	if len(g.config.PropertyClasses) > 0 {
		row.PropertyClass = sql.Null[string]{V: g.config.PropertyClasses[g.rng.Intn(len(g.config.PropertyClasses))], Valid: true}
	}
	if g.rng.Float64() < g.config.InvalidRate {
		row.SalePrice = decimal.NullDecimal{}
		row.Ratio = sql.Null[float64]{}
	}
	return row
}

// GenerateFeatures returns count parcel profiles with a sale inside the
// generator's year
func (g *SalesGenerator) GenerateFeatures(count int) []assessment.ParcelFeatures {
	qualities := []string{"fair", "average", "good", "excellent"}
	out := make([]assessment.ParcelFeatures, count)
	for i := range out {
		hood := g.config.Neighborhoods[i%len(g.config.Neighborhoods)]
		living := math.Round(1200 + g.rng.Float64()*2400)
		out[i] = assessment.ParcelFeatures{
			ParcelID:      fmt.Sprintf("%s-F%04d", hood, i+1),
			Neighborhood:  sql.Null[string]{V: hood, Valid: true},
			PropertyClass: sql.Null[string]{V: "R1", Valid: true},
			LandArea:      sql.Null[float64]{V: math.Round(4000 + g.rng.Float64()*16000), Valid: true},
			LivingArea:    sql.Null[float64]{V: living, Valid: true},
			YearBuilt:     sql.Null[int64]{V: int64(1950 + g.rng.Intn(74)), Valid: true},
			Bedrooms:      sql.Null[int64]{V: int64(2 + g.rng.Intn(4)), Valid: true},
			Bathrooms:     sql.Null[float64]{V: float64(1+g.rng.Intn(6)) / 2, Valid: true},
			Quality:       sql.Null[string]{V: qualities[g.rng.Intn(len(qualities))], Valid: true},
			HasGarage:     sql.Null[bool]{V: g.rng.Float64() < 0.7, Valid: true},
			HasPool:       sql.Null[bool]{V: g.rng.Float64() < 0.15, Valid: true},
			SaleDate:      sql.Null[time.Time]{V: g.config.StartDate.AddDate(0, 0, g.rng.Intn(365)), Valid: true},
			SalePrice:     decimal.NewNullDecimal(decimal.NewFromFloat(math.Round(living * (150 + g.rng.Float64()*100)))),
		}
	}
	return out
}
