package migration

import (
	"context"

	"assessr/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// steps returns the migration statements in execution order. Every statement
// is idempotent so Run can be repeated against an existing schema.
func (r *MigrationRunner) steps() []step {
	return []step{
		{"create parcels table", createParcelsTable},
		{"create valuations table", createValuationsTable},
		{"create sales table", createSalesTable},
		{"create structures table", createStructuresTable},
		{"create appeals table", createAppealsTable},
		{"create indexes", createIndexes},
		{"create sales_ratio_v view", createSalesRatioView},
		{"create parcel_features_v view", createParcelFeaturesView},
	}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range r.steps() {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrap(errors.DatabaseError(s.name, err), "failed to "+s.name)
		}
	}
	return nil
}

const createParcelsTable = `
	CREATE TABLE IF NOT EXISTS parcels (
		id TEXT PRIMARY KEY,
		parcel_number VARCHAR(64) UNIQUE NOT NULL,
		situs_address TEXT NOT NULL DEFAULT '',
		owner_name TEXT NOT NULL DEFAULT '',
		mailing_address TEXT,
		neighborhood VARCHAR(64),
		property_class VARCHAR(32),
		land_use VARCHAR(64),
		land_area DOUBLE PRECISION,
		legal_description TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const createValuationsTable = `
	CREATE TABLE IF NOT EXISTS valuations (
		parcel_id TEXT NOT NULL REFERENCES parcels(id) ON DELETE CASCADE,
		tax_year INTEGER NOT NULL,
		land_value NUMERIC(14,2) NOT NULL DEFAULT 0,
		improvement_value NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_value NUMERIC(14,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (parcel_id, tax_year)
	)
`

const createSalesTable = `
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		parcel_id TEXT NOT NULL REFERENCES parcels(id) ON DELETE CASCADE,
		sale_date DATE NOT NULL,
		sale_price NUMERIC(14,2),
		valid_sale BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const createStructuresTable = `
	CREATE TABLE IF NOT EXISTS structures (
		parcel_id TEXT PRIMARY KEY REFERENCES parcels(id) ON DELETE CASCADE,
		living_area DOUBLE PRECISION,
		year_built INTEGER,
		bedrooms INTEGER,
		bathrooms DOUBLE PRECISION,
		quality VARCHAR(32),
		condition VARCHAR(32),
		has_garage BOOLEAN,
		has_pool BOOLEAN
	)
`

const createAppealsTable = `
	CREATE TABLE IF NOT EXISTS appeals (
		id UUID PRIMARY KEY,
		parcel_id TEXT NOT NULL REFERENCES parcels(id) ON DELETE CASCADE,
		tax_year INTEGER NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'filed',
		reason TEXT NOT NULL DEFAULT '',
		owner_opinion NUMERIC(14,2),
		final_value NUMERIC(14,2),
		filed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		decided_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_parcels_neighborhood ON parcels(neighborhood);
	CREATE INDEX IF NOT EXISTS idx_parcels_property_class ON parcels(property_class);
	CREATE INDEX IF NOT EXISTS idx_sales_parcel_date ON sales(parcel_id, sale_date DESC);
	CREATE INDEX IF NOT EXISTS idx_appeals_parcel ON appeals(parcel_id, filed_at DESC);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_appeals_open_per_year
		ON appeals(parcel_id, tax_year) WHERE status IN ('filed', 'scheduled');
`

// A sale is tested against the valuation of the tax year it closed in.
const createSalesRatioView = `
	CREATE OR REPLACE VIEW sales_ratio_v AS
	SELECT
		s.id AS sale_id,
		s.parcel_id,
		v.tax_year,
		s.sale_date::timestamptz AS sale_date,
		s.sale_price,
		v.total_value AS assessed_value,
		CASE WHEN s.sale_price > 0
			THEN (v.total_value / s.sale_price)::double precision
		END AS ratio,
		p.neighborhood,
		p.property_class,
		p.land_use,
		s.valid_sale
	FROM sales s
	JOIN parcels p ON p.id = s.parcel_id
	JOIN valuations v ON v.parcel_id = s.parcel_id
		AND v.tax_year = EXTRACT(YEAR FROM s.sale_date)::int
`

const createParcelFeaturesView = `
	CREATE OR REPLACE VIEW parcel_features_v AS
	SELECT
		p.id AS parcel_id,
		p.situs_address,
		p.neighborhood,
		p.property_class,
		p.land_area,
		st.living_area,
		st.year_built::bigint AS year_built,
		st.bedrooms::bigint AS bedrooms,
		st.bathrooms,
		st.quality,
		st.condition,
		st.has_garage,
		st.has_pool,
		ls.sale_date::timestamptz AS sale_date,
		ls.sale_price
	FROM parcels p
	LEFT JOIN structures st ON st.parcel_id = p.id
	LEFT JOIN LATERAL (
		SELECT sale_date, sale_price
		FROM sales
		WHERE parcel_id = p.id AND valid_sale
		ORDER BY sale_date DESC
		LIMIT 1
	) ls ON true
`
