package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/repositories"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

const profileColumns = `id, email, raw_user_meta_data, is_admin, updated_at, last_sign_in_at`

// ProfileRepository implements the repositories.ProfileRepository interface
type ProfileRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB, logger *zap.Logger) repositories.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx returns a repository bound to tx
func (r *ProfileRepository) WithTx(tx repositories.Transaction) repositories.ProfileRepository {
	pgTx, ok := tx.(*Transaction)
	if !ok {
		return r
	}
	return &ProfileRepository{db: r.db, tx: pgTx, logger: r.logger}
}

func (r *ProfileRepository) executor(ctx context.Context) Executor {
	if r.tx != nil {
		return r.tx.tx
	}
	return GetExecutor(ctx, r.db)
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, raw_user_meta_data, is_admin, updated_at, last_sign_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	metadata, err := encodeMetadata(profile.RawMetadata)
	if err != nil {
		return err
	}

	_, err = r.executor(ctx).ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		metadata,
		profile.IsAdmin,
		profile.UpdatedAt,
		profile.LastSignInAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: profile %s", repositories.ErrDuplicate, profile.Email)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	r.logger.Debug("profile created", zap.String("id", profile.ID.String()), zap.String("email", profile.Email))
	return nil
}

// GetByID retrieves a profile by user ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.executor(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: profile %s", repositories.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetAdminFlag reads the is_admin column for id
func (r *ProfileRepository) GetAdminFlag(ctx context.Context, id uuid.UUID) (bool, error) {
	var isAdmin bool
	err := r.executor(ctx).QueryRowContext(ctx, `SELECT is_admin FROM profiles WHERE id = $1`, id).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: profile %s", repositories.ErrNotFound, id)
		}
		return false, fmt.Errorf("failed to get admin flag: %w", err)
	}
	return isAdmin, nil
}

// List retrieves all profiles ordered by updated_at descending
func (r *ProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY updated_at DESC`

	rows, err := r.executor(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*models.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// UpdateMetadata replaces raw_user_meta_data and bumps updated_at
func (r *ProfileRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]interface{}) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}

	query := `UPDATE profiles SET raw_user_meta_data = $1, updated_at = $2 WHERE id = $3`
	result, err := r.executor(ctx).ExecContext(ctx, query, encoded, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile metadata: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	r.logger.Debug("profile metadata updated", zap.String("id", id.String()))
	return nil
}

// SetAdmin updates is_admin and bumps updated_at
func (r *ProfileRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	query := `UPDATE profiles SET is_admin = $1, updated_at = $2 WHERE id = $3`
	result, err := r.executor(ctx).ExecContext(ctx, query, isAdmin, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set admin status: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	r.logger.Info("profile admin status changed", zap.String("id", id.String()), zap.Bool("is_admin", isAdmin))
	return nil
}

// Delete deletes a profile
func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.executor(ctx).ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	r.logger.Debug("profile deleted", zap.String("id", id.String()))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	profile := &models.Profile{}
	var rawMetadata []byte
	var lastSignIn sql.NullTime

	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&rawMetadata,
		&profile.IsAdmin,
		&profile.UpdatedAt,
		&lastSignIn,
	); err != nil {
		return nil, err
	}

	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &profile.RawMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode raw_user_meta_data: %w", err)
		}
	}
	if lastSignIn.Valid {
		t := lastSignIn.Time
		profile.LastSignInAt = &t
	}

	profile.Hydrate()
	return profile, nil
}

func encodeMetadata(metadata map[string]interface{}) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw_user_meta_data: %w", err)
	}
	return encoded, nil
}

func requireRow(result sql.Result, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: profile %s", repositories.ErrNotFound, id)
	}
	return nil
}
