package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal/errors"
	"assessr/ports"

	"github.com/jmoiron/sqlx"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 200
)

// parcelRepository implements ports.ParcelRepository and ports.FeatureRepository
type parcelRepository struct {
	db *sqlx.DB
}

// NewParcelRepository creates a new parcel repository
func NewParcelRepository(db *sqlx.DB) ports.ParcelRepository {
	return &parcelRepository{db: db}
}

// NewFeatureRepository creates a repository over parcel_features_v
func NewFeatureRepository(db *sqlx.DB) ports.FeatureRepository {
	return &parcelRepository{db: db}
}

const parcelColumns = `id, parcel_number, situs_address, owner_name, mailing_address,
		neighborhood, property_class, legal_description, created_at, updated_at`

// Search matches parcel number, situs address or owner name, case-insensitively
func (r *parcelRepository) Search(ctx context.Context, q assessment.ParcelQuery) ([]assessment.Parcel, error) {
	limit := clampLimit(q.Limit, defaultSearchLimit, maxSearchLimit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var b queryBuilder
	if text := strings.TrimSpace(q.Text); text != "" {
		b.add("(parcel_number ILIKE $%[1]d OR situs_address ILIKE $%[1]d OR owner_name ILIKE $%[1]d)", "%"+escapeLike(text)+"%")
	}
	b.args = append(b.args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM parcels%s ORDER BY parcel_number LIMIT $%d OFFSET $%d",
		parcelColumns, b.whereSQL(), len(b.args)-1, len(b.args))

	var parcels []assessment.Parcel
	if err := r.db.SelectContext(ctx, &parcels, query, b.args...); err != nil {
		return nil, errors.DatabaseError("failed to search parcels", err)
	}
	return parcels, nil
}

// GetByID retrieves a parcel by its identifier
func (r *parcelRepository) GetByID(ctx context.Context, id string) (*assessment.Parcel, error) {
	var parcel assessment.Parcel
	err := r.db.GetContext(ctx, &parcel, "SELECT "+parcelColumns+" FROM parcels WHERE id = $1", id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrParcelNotFound, id)
		}
		return nil, errors.DatabaseError("failed to get parcel", err)
	}
	return &parcel, nil
}

// Valuations returns certified values newest first
func (r *parcelRepository) Valuations(ctx context.Context, parcelID string, limit int) ([]assessment.Valuation, error) {
	limit = clampLimit(limit, 5, 50)

	var vals []assessment.Valuation
	err := r.db.SelectContext(ctx, &vals, `
		SELECT parcel_id, tax_year, land_value, improvement_value, total_value
		FROM valuations
		WHERE parcel_id = $1
		ORDER BY tax_year DESC
		LIMIT $2`, parcelID, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list valuations", err)
	}
	return vals, nil
}

const featureColumns = `parcel_id, situs_address, neighborhood, property_class, land_area,
		living_area, year_built, bedrooms, bathrooms, quality, condition,
		has_garage, has_pool, sale_date, sale_price`

// GetFeatures loads the comparison profile of one parcel
func (r *parcelRepository) GetFeatures(ctx context.Context, parcelID string) (*assessment.ParcelFeatures, error) {
	var f assessment.ParcelFeatures
	err := r.db.GetContext(ctx, &f, "SELECT "+featureColumns+" FROM parcel_features_v WHERE parcel_id = $1", parcelID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrParcelNotFound, parcelID)
		}
		return nil, errors.DatabaseError("failed to get parcel features", err)
	}
	return &f, nil
}

// ListCandidates returns recently sold parcels matching filter, newest sale first
func (r *parcelRepository) ListCandidates(ctx context.Context, filter assessment.CandidateFilter) ([]assessment.ParcelFeatures, error) {
	query, args := buildCandidateQuery(filter)

	var out []assessment.ParcelFeatures
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list comparable candidates", err)
	}
	return out, nil
}

func buildCandidateQuery(f assessment.CandidateFilter) (string, []interface{}) {
	var b queryBuilder
	b.addRaw("sale_date IS NOT NULL")
	if f.ExcludeParcelID != "" {
		b.add("parcel_id <> $%d", f.ExcludeParcelID)
	}
	if !f.SoldAfter.IsZero() {
		b.add("sale_date >= $%d", f.SoldAfter)
	}
	if f.PropertyClass != "" {
		b.add("property_class = $%d", f.PropertyClass)
	}
	if f.Neighborhood != "" {
		b.add("neighborhood = $%d", f.Neighborhood)
	}
	b.args = append(b.args, clampLimit(f.Limit, 500, 5000))

	query := fmt.Sprintf("SELECT %s FROM parcel_features_v%s ORDER BY sale_date DESC, parcel_id LIMIT $%d",
		featureColumns, b.whereSQL(), len(b.args))
	return query, b.args
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
