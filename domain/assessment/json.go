package assessment

import (
	"database/sql"
	"encoding/json"
	"time"
)

// sql.Null[T] has no JSON form of its own, so each row type flattens its
// nullable columns into pointers.

func nullPtr[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

func (r RatioRow) MarshalJSON() ([]byte, error) {
	type alias RatioRow
	return json.Marshal(struct {
		alias
		Ratio         *float64 `json:"ratio"`
		Neighborhood  *string  `json:"neighborhood"`
		PropertyClass *string  `json:"property_class"`
		LandUse       *string  `json:"land_use"`
	}{
		alias:         alias(r),
		Ratio:         nullPtr(r.Ratio),
		Neighborhood:  nullPtr(r.Neighborhood),
		PropertyClass: nullPtr(r.PropertyClass),
		LandUse:       nullPtr(r.LandUse),
	})
}

func (p ParcelFeatures) MarshalJSON() ([]byte, error) {
	type alias ParcelFeatures
	return json.Marshal(struct {
		alias
		SitusAddress  *string    `json:"situs_address"`
		Neighborhood  *string    `json:"neighborhood"`
		PropertyClass *string    `json:"property_class"`
		LandArea      *float64   `json:"land_area"`
		LivingArea    *float64   `json:"living_area"`
		YearBuilt     *int64     `json:"year_built"`
		Bedrooms      *int64     `json:"bedrooms"`
		Bathrooms     *float64   `json:"bathrooms"`
		Quality       *string    `json:"quality"`
		Condition     *string    `json:"condition"`
		HasGarage     *bool      `json:"has_garage"`
		HasPool       *bool      `json:"has_pool"`
		SaleDate      *time.Time `json:"sale_date"`
	}{
		alias:         alias(p),
		SitusAddress:  nullPtr(p.SitusAddress),
		Neighborhood:  nullPtr(p.Neighborhood),
		PropertyClass: nullPtr(p.PropertyClass),
		LandArea:      nullPtr(p.LandArea),
		LivingArea:    nullPtr(p.LivingArea),
		YearBuilt:     nullPtr(p.YearBuilt),
		Bedrooms:      nullPtr(p.Bedrooms),
		Bathrooms:     nullPtr(p.Bathrooms),
		Quality:       nullPtr(p.Quality),
		Condition:     nullPtr(p.Condition),
		HasGarage:     nullPtr(p.HasGarage),
		HasPool:       nullPtr(p.HasPool),
		SaleDate:      nullPtr(p.SaleDate),
	})
}

func (p Parcel) MarshalJSON() ([]byte, error) {
	type alias Parcel
	return json.Marshal(struct {
		alias
		MailingAddress   *string `json:"mailing_address"`
		Neighborhood     *string `json:"neighborhood"`
		PropertyClass    *string `json:"property_class"`
		LegalDescription *string `json:"legal_description"`
	}{
		alias:            alias(p),
		MailingAddress:   nullPtr(p.MailingAddress),
		Neighborhood:     nullPtr(p.Neighborhood),
		PropertyClass:    nullPtr(p.PropertyClass),
		LegalDescription: nullPtr(p.LegalDescription),
	})
}

func (a Appeal) MarshalJSON() ([]byte, error) {
	type alias Appeal
	return json.Marshal(struct {
		alias
		DecidedAt *time.Time `json:"decided_at"`
	}{
		alias:     alias(a),
		DecidedAt: nullPtr(a.DecidedAt),
	})
}
