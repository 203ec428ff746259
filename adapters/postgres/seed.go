package postgres

import (
	"context"
	"database/sql"
	"time"

	"assessr/domain/assessment"
	"assessr/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// landShare is the portion of a seeded total value attributed to land
var landShare = decimal.NewFromFloat(0.25)

type seedParcel struct {
	ID            string            `db:"id"`
	Neighborhood  sql.Null[string]  `db:"neighborhood"`
	PropertyClass sql.Null[string]  `db:"property_class"`
	LandArea      sql.Null[float64] `db:"land_area"`
}

type seedValuation struct {
	ParcelID         string          `db:"parcel_id"`
	TaxYear          int             `db:"tax_year"`
	LandValue        decimal.Decimal `db:"land_value"`
	ImprovementValue decimal.Decimal `db:"improvement_value"`
	TotalValue       decimal.Decimal `db:"total_value"`
}

type seedSale struct {
	ID        string              `db:"id"`
	ParcelID  string              `db:"parcel_id"`
	SaleDate  time.Time           `db:"sale_date"`
	SalePrice decimal.NullDecimal `db:"sale_price"`
	ValidSale bool                `db:"valid_sale"`
}

const (
	insertSeedParcel = `
		INSERT INTO parcels (id, parcel_number, situs_address, owner_name, neighborhood, property_class, land_area)
		VALUES (:id, :id, 'Synthetic parcel ' || CAST(:id AS TEXT), 'Synthetic owner', :neighborhood, :property_class, :land_area)
		ON CONFLICT (id) DO NOTHING`
	insertSeedValuation = `
		INSERT INTO valuations (parcel_id, tax_year, land_value, improvement_value, total_value)
		VALUES (:parcel_id, :tax_year, :land_value, :improvement_value, :total_value)
		ON CONFLICT (parcel_id, tax_year) DO UPDATE SET
			land_value = EXCLUDED.land_value,
			improvement_value = EXCLUDED.improvement_value,
			total_value = EXCLUDED.total_value`
	insertSeedSale = `
		INSERT INTO sales (id, parcel_id, sale_date, sale_price, valid_sale)
		VALUES (:id, :parcel_id, :sale_date, :sale_price, :valid_sale)
		ON CONFLICT (id) DO NOTHING`
	insertSeedStructure = `
		INSERT INTO structures (parcel_id, living_area, year_built, bedrooms, bathrooms, quality, condition, has_garage, has_pool)
		VALUES (:parcel_id, :living_area, :year_built, :bedrooms, :bathrooms, :quality, :condition, :has_garage, :has_pool)
		ON CONFLICT (parcel_id) DO NOTHING`
)

// SeedSales loads ratio rows as parcels, valuations and sales in one
// transaction. Rows without a sale price become invalid sales. Existing
// parcels and sales are left alone; valuations are overwritten.
func SeedSales(ctx context.Context, db *sqlx.DB, rows []assessment.RatioRow) error {
	return inTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, r := range rows {
			if _, err := tx.NamedExecContext(ctx, insertSeedParcel, seedParcel{
				ID:            r.ParcelID,
				Neighborhood:  r.Neighborhood,
				PropertyClass: r.PropertyClass,
			}); err != nil {
				return err
			}
			if r.AssessedValue.Valid {
				total := r.AssessedValue.Decimal
				land := total.Mul(landShare).Round(0)
				if _, err := tx.NamedExecContext(ctx, insertSeedValuation, seedValuation{
					ParcelID:         r.ParcelID,
					TaxYear:          r.TaxYear,
					LandValue:        land,
					ImprovementValue: total.Sub(land),
					TotalValue:       total,
				}); err != nil {
					return err
				}
			}
			if _, err := tx.NamedExecContext(ctx, insertSeedSale, seedSale{
				ID:        r.SaleID,
				ParcelID:  r.ParcelID,
				SaleDate:  r.SaleDate,
				SalePrice: r.SalePrice,
				ValidSale: r.SalePrice.Valid,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedFeatures loads parcel profiles with their structure and latest sale
func SeedFeatures(ctx context.Context, db *sqlx.DB, features []assessment.ParcelFeatures) error {
	return inTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, f := range features {
			if _, err := tx.NamedExecContext(ctx, insertSeedParcel, seedParcel{
				ID:            f.ParcelID,
				Neighborhood:  f.Neighborhood,
				PropertyClass: f.PropertyClass,
				LandArea:      f.LandArea,
			}); err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, insertSeedStructure, f); err != nil {
				return err
			}
			if !f.SaleDate.Valid {
				continue
			}
			if _, err := tx.NamedExecContext(ctx, insertSeedSale, seedSale{
				ID:        "S-" + f.ParcelID,
				ParcelID:  f.ParcelID,
				SaleDate:  f.SaleDate.V,
				SalePrice: f.SalePrice,
				ValidSale: true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin seed transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return errors.DatabaseError("failed to seed data", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit seed data", err)
	}
	return nil
}
