package postgres

import (
	"context"
	"fmt"
	"strings"

	"assessr/domain/assessment"
	"assessr/internal/errors"
	"assessr/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ratioRepository implements ports.RatioRepository over the sales_ratio_v view
type ratioRepository struct {
	db *sqlx.DB
}

// NewRatioRepository creates a new ratio repository
func NewRatioRepository(db *sqlx.DB) ports.RatioRepository {
	return &ratioRepository{db: db}
}

const ratioColumns = `sale_id, parcel_id, tax_year, sale_date, sale_price, assessed_value,
		ratio, neighborhood, property_class, land_use`

// ListRatioRows returns the sales matching filter ordered by sale date
func (r *ratioRepository) ListRatioRows(ctx context.Context, filter assessment.RatioFilter) ([]assessment.RatioRow, error) {
	query, args := buildRatioQuery(filter)

	var rows []assessment.RatioRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to query ratio rows", err)
	}
	return rows, nil
}

// queryBuilder accumulates WHERE clauses with numbered placeholders
type queryBuilder struct {
	where []string
	args  []interface{}
}

func (b *queryBuilder) add(clause string, arg interface{}) {
	b.args = append(b.args, arg)
	b.where = append(b.where, fmt.Sprintf(clause, len(b.args)))
}

func (b *queryBuilder) addRaw(clause string) {
	b.where = append(b.where, clause)
}

func (b *queryBuilder) whereSQL() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func buildRatioQuery(f assessment.RatioFilter) (string, []interface{}) {
	var b queryBuilder
	if f.TaxYear > 0 {
		b.add("tax_year = $%d", f.TaxYear)
	}
	if f.SaleDateFrom != nil {
		b.add("sale_date >= $%d", *f.SaleDateFrom)
	}
	if f.SaleDateTo != nil {
		b.add("sale_date <= $%d", *f.SaleDateTo)
	}
	if len(f.Neighborhoods) > 0 {
		b.add("neighborhood = ANY($%d)", pq.Array(f.Neighborhoods))
	}
	if f.PropertyClass != "" {
		b.add("property_class = $%d", f.PropertyClass)
	}
	if !f.IncludeInvalid {
		b.addRaw("valid_sale")
	}

	query := "SELECT " + ratioColumns + " FROM sales_ratio_v" + b.whereSQL() + " ORDER BY sale_date, sale_id"
	return query, b.args
}
