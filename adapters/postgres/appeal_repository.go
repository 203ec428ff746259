package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal/errors"
	"assessr/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// appealRepository implements ports.AppealRepository
type appealRepository struct {
	db *sqlx.DB
}

// NewAppealRepository creates a new appeal repository
func NewAppealRepository(db *sqlx.DB) ports.AppealRepository {
	return &appealRepository{db: db}
}

const appealColumns = `id, parcel_id, tax_year, status, reason, owner_opinion, final_value,
		filed_at, decided_at, created_at, updated_at`

// Create stores a new appeal
func (r *appealRepository) Create(ctx context.Context, appeal *assessment.Appeal) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO appeals (`+appealColumns+`)
		VALUES (:id, :parcel_id, :tax_year, :status, :reason, :owner_opinion, :final_value,
			:filed_at, :decided_at, :created_at, :updated_at)`, appeal)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23503": // foreign_key_violation
				return fmt.Errorf("%w: %s", core.ErrParcelNotFound, appeal.ParcelID)
			case "23505": // unique_violation
				return errors.Conflict(fmt.Sprintf("an open appeal already exists for parcel %s in %d", appeal.ParcelID, appeal.TaxYear))
			}
		}
		return errors.DatabaseError("failed to create appeal", err)
	}
	return nil
}

// GetByID retrieves an appeal by ID
func (r *appealRepository) GetByID(ctx context.Context, id core.ID) (*assessment.Appeal, error) {
	var appeal assessment.Appeal
	err := r.db.GetContext(ctx, &appeal, "SELECT "+appealColumns+" FROM appeals WHERE id = $1", id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrAppealNotFound, id)
		}
		return nil, errors.DatabaseError("failed to get appeal", err)
	}
	return &appeal, nil
}

// ListByParcel returns a parcel's appeals, most recently filed first
func (r *appealRepository) ListByParcel(ctx context.Context, parcelID string) ([]assessment.Appeal, error) {
	var appeals []assessment.Appeal
	err := r.db.SelectContext(ctx, &appeals,
		"SELECT "+appealColumns+" FROM appeals WHERE parcel_id = $1 ORDER BY filed_at DESC", parcelID)
	if err != nil {
		return nil, errors.DatabaseError("failed to list appeals", err)
	}
	return appeals, nil
}

// UpdateStatus moves an appeal to status, stamping decided_at when the status is final
func (r *appealRepository) UpdateStatus(ctx context.Context, id core.ID, status assessment.AppealStatus, finalValue decimal.NullDecimal) error {
	now := time.Now().UTC()
	decidedAt := sql.Null[time.Time]{V: now, Valid: status.Closed()}

	result, err := r.db.ExecContext(ctx, `
		UPDATE appeals
		SET status = $2, final_value = $3, decided_at = $4, updated_at = $5
		WHERE id = $1`, id, status, finalValue, decidedAt, now)
	if err != nil {
		return errors.DatabaseError("failed to update appeal", err)
	}
	return requireAffected(result, core.ErrAppealNotFound, id)
}

// Delete removes an appeal
func (r *appealRepository) Delete(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM appeals WHERE id = $1", id)
	if err != nil {
		return errors.DatabaseError("failed to delete appeal", err)
	}
	return requireAffected(result, core.ErrAppealNotFound, id)
}

func requireAffected(result sql.Result, notFound error, id core.ID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
