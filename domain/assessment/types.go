package assessment

import (
	"database/sql"
	"math"
	"strconv"
	"time"

	"assessr/domain/analytics"
	"assessr/domain/core"

	"github.com/shopspring/decimal"
)

// RatioRow is one sale from the sales ratio view. Ratio is assessed value
// divided by sale price for the assessment year the sale is tested against.
type RatioRow struct {
	SaleID        string              `db:"sale_id" json:"sale_id"`
	ParcelID      string              `db:"parcel_id" json:"parcel_id"`
	TaxYear       int                 `db:"tax_year" json:"tax_year"`
	SaleDate      time.Time           `db:"sale_date" json:"sale_date"`
	SalePrice     decimal.NullDecimal `db:"sale_price" json:"sale_price"`
	AssessedValue decimal.NullDecimal `db:"assessed_value" json:"assessed_value"`
	Ratio         sql.Null[float64]   `db:"ratio" json:"-"`
	Neighborhood  sql.Null[string]    `db:"neighborhood" json:"-"`
	PropertyClass sql.Null[string]    `db:"property_class" json:"-"`
	LandUse       sql.Null[string]    `db:"land_use" json:"-"`
}

// RatioValue implements analytics.RatioSource
func (r RatioRow) RatioValue() (float64, bool) {
	if !r.Ratio.Valid || math.IsNaN(r.Ratio.V) || math.IsInf(r.Ratio.V, 0) {
		return 0, false
	}
	return r.Ratio.V, true
}

// SaleAmounts implements analytics.SaleRatioSource
func (r RatioRow) SaleAmounts() (float64, float64, bool) {
	if !r.SalePrice.Valid || !r.AssessedValue.Valid || !r.SalePrice.Decimal.IsPositive() {
		return 0, 0, false
	}
	return r.SalePrice.Decimal.InexactFloat64(), r.AssessedValue.Decimal.InexactFloat64(), true
}

// Field exposes the grouping attributes of a ratio row
func (r RatioRow) Field(key string) analytics.Value {
	switch key {
	case "sale_id":
		return analytics.Text(r.SaleID)
	case "parcel_id":
		return analytics.Text(r.ParcelID)
	case "tax_year":
		return analytics.Text(strconv.Itoa(r.TaxYear))
	case "sale_year":
		if r.SaleDate.IsZero() {
			return analytics.Null()
		}
		return analytics.Text(strconv.Itoa(r.SaleDate.Year()))
	case "sale_date":
		return analytics.Date(r.SaleDate)
	case "neighborhood":
		return nullText(r.Neighborhood)
	case "property_class":
		return nullText(r.PropertyClass)
	case "land_use":
		return nullText(r.LandUse)
	case "ratio":
		if f, ok := r.RatioValue(); ok {
			return analytics.Number(f)
		}
	}
	return analytics.Null()
}

// RatioGroupFields lists the fields a ratio row may be grouped by
var RatioGroupFields = []string{"neighborhood", "property_class", "land_use", "tax_year", "sale_year"}

// IsRatioGroupField reports whether key is a supported grouping field
func IsRatioGroupField(key string) bool {
	for _, f := range RatioGroupFields {
		if f == key {
			return true
		}
	}
	return false
}

// RatioFilter narrows the sales pulled into a ratio study
type RatioFilter struct {
	TaxYear        int
	SaleDateFrom   *time.Time
	SaleDateTo     *time.Time
	Neighborhoods  []string
	PropertyClass  string
	IncludeInvalid bool // include sales not flagged as arm's length
}

// ParcelFeatures is the comparison profile of a parcel used for comparable
// sales scoring
type ParcelFeatures struct {
	ParcelID      string              `db:"parcel_id" json:"parcel_id"`
	SitusAddress  sql.Null[string]    `db:"situs_address" json:"-"`
	Neighborhood  sql.Null[string]    `db:"neighborhood" json:"-"`
	PropertyClass sql.Null[string]    `db:"property_class" json:"-"`
	LandArea      sql.Null[float64]   `db:"land_area" json:"-"`
	LivingArea    sql.Null[float64]   `db:"living_area" json:"-"`
	YearBuilt     sql.Null[int64]     `db:"year_built" json:"-"`
	Bedrooms      sql.Null[int64]     `db:"bedrooms" json:"-"`
	Bathrooms     sql.Null[float64]   `db:"bathrooms" json:"-"`
	Quality       sql.Null[string]    `db:"quality" json:"-"`
	Condition     sql.Null[string]    `db:"condition" json:"-"`
	HasGarage     sql.Null[bool]      `db:"has_garage" json:"-"`
	HasPool       sql.Null[bool]      `db:"has_pool" json:"-"`
	SaleDate      sql.Null[time.Time] `db:"sale_date" json:"-"`
	SalePrice     decimal.NullDecimal `db:"sale_price" json:"sale_price"`
}

// Field exposes parcel characteristics to the distance scorer
func (p ParcelFeatures) Field(key string) analytics.Value {
	switch key {
	case "parcel_id":
		return analytics.Text(p.ParcelID)
	case "situs_address":
		return nullText(p.SitusAddress)
	case "neighborhood":
		return nullText(p.Neighborhood)
	case "property_class":
		return nullText(p.PropertyClass)
	case "land_area":
		return nullNumber(p.LandArea)
	case "living_area":
		return nullNumber(p.LivingArea)
	case "year_built":
		return nullInt(p.YearBuilt)
	case "bedrooms":
		return nullInt(p.Bedrooms)
	case "bathrooms":
		return nullNumber(p.Bathrooms)
	case "quality":
		return nullText(p.Quality)
	case "condition":
		return nullText(p.Condition)
	case "has_garage":
		return nullBool(p.HasGarage)
	case "has_pool":
		return nullBool(p.HasPool)
	case "sale_date":
		if !p.SaleDate.Valid {
			return analytics.Null()
		}
		return analytics.Date(p.SaleDate.V)
	case "sale_price":
		if !p.SalePrice.Valid {
			return analytics.Null()
		}
		return analytics.Number(p.SalePrice.Decimal.InexactFloat64())
	}
	return analytics.Null()
}

// ParcelFeatureFields lists the keys ParcelFeatures.Field understands
var ParcelFeatureFields = []string{
	"parcel_id", "situs_address", "neighborhood", "property_class", "land_area",
	"living_area", "year_built", "bedrooms", "bathrooms", "quality", "condition",
	"has_garage", "has_pool", "sale_date", "sale_price",
}

// CandidateFilter selects sold parcels that may serve as comparables
type CandidateFilter struct {
	ExcludeParcelID string
	PropertyClass   string
	Neighborhood    string
	SoldAfter       time.Time
	Limit           int
}

// Parcel is a real property record
type Parcel struct {
	ID               string           `db:"id" json:"id"`
	ParcelNumber     string           `db:"parcel_number" json:"parcel_number"`
	SitusAddress     string           `db:"situs_address" json:"situs_address"`
	OwnerName        string           `db:"owner_name" json:"owner_name"`
	MailingAddress   sql.Null[string] `db:"mailing_address" json:"-"`
	Neighborhood     sql.Null[string] `db:"neighborhood" json:"-"`
	PropertyClass    sql.Null[string] `db:"property_class" json:"-"`
	LegalDescription sql.Null[string] `db:"legal_description" json:"-"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// ParcelQuery is a free-text parcel search
type ParcelQuery struct {
	Text   string
	Limit  int
	Offset int
}

// Valuation is a parcel's certified value for one tax year
type Valuation struct {
	ParcelID         string          `db:"parcel_id" json:"parcel_id"`
	TaxYear          int             `db:"tax_year" json:"tax_year"`
	LandValue        decimal.Decimal `db:"land_value" json:"land_value"`
	ImprovementValue decimal.Decimal `db:"improvement_value" json:"improvement_value"`
	TotalValue       decimal.Decimal `db:"total_value" json:"total_value"`
}

// AppealStatus is the lifecycle state of an appeal
type AppealStatus string

const (
	AppealFiled     AppealStatus = "filed"
	AppealScheduled AppealStatus = "scheduled"
	AppealSustained AppealStatus = "sustained"
	AppealReduced   AppealStatus = "reduced"
	AppealWithdrawn AppealStatus = "withdrawn"
)

// Valid reports whether s is a known appeal status
func (s AppealStatus) Valid() bool {
	switch s {
	case AppealFiled, AppealScheduled, AppealSustained, AppealReduced, AppealWithdrawn:
		return true
	}
	return false
}

// Closed reports whether the appeal has a final decision
func (s AppealStatus) Closed() bool {
	return s == AppealSustained || s == AppealReduced || s == AppealWithdrawn
}

// Appeal is an owner's challenge to a parcel valuation
type Appeal struct {
	ID           core.ID             `db:"id" json:"id"`
	ParcelID     string              `db:"parcel_id" json:"parcel_id"`
	TaxYear      int                 `db:"tax_year" json:"tax_year"`
	Status       AppealStatus        `db:"status" json:"status"`
	Reason       string              `db:"reason" json:"reason"`
	OwnerOpinion decimal.NullDecimal `db:"owner_opinion" json:"owner_opinion"`
	FinalValue   decimal.NullDecimal `db:"final_value" json:"final_value"`
	FiledAt      time.Time           `db:"filed_at" json:"filed_at"`
	DecidedAt    sql.Null[time.Time] `db:"decided_at" json:"-"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}

// NewAppeal creates a filed appeal with a fresh identifier
func NewAppeal(parcelID string, taxYear int, reason string, opinion decimal.NullDecimal) *Appeal {
	now := time.Now().UTC()
	return &Appeal{
		ID:           core.NewID(),
		ParcelID:     parcelID,
		TaxYear:      taxYear,
		Status:       AppealFiled,
		Reason:       reason,
		OwnerOpinion: opinion,
		FiledAt:      now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func nullText(s sql.Null[string]) analytics.Value {
	if !s.Valid {
		return analytics.Null()
	}
	return analytics.Text(s.V)
}

func nullNumber(f sql.Null[float64]) analytics.Value {
	if !f.Valid {
		return analytics.Null()
	}
	return analytics.Number(f.V)
}

func nullInt(i sql.Null[int64]) analytics.Value {
	if !i.Valid {
		return analytics.Null()
	}
	return analytics.Number(float64(i.V))
}

func nullBool(b sql.Null[bool]) analytics.Value {
	if !b.Valid {
		return analytics.Null()
	}
	return analytics.Bool(b.V)
}
