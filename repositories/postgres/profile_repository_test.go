package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/repositories"
	"go.uber.org/zap/zaptest"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return WrapDB(sqlDB, zaptest.NewLogger(t)), mock
}

var profileRowColumns = []string{"id", "email", "raw_user_meta_data", "is_admin", "updated_at", "last_sign_in_at"}

func TestProfileRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	profile := models.NewProfile(uuid.New(), "ada@example.com", map[string]interface{}{"name": "Ada"})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs(profile.ID, profile.Email, []byte(`{"name":"Ada"}`), false, profile.UpdatedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), profile))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	profile := models.NewProfile(uuid.New(), "ada@example.com", nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), profile)
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	id := uuid.New()
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	signedIn := updated.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, raw_user_meta_data, is_admin, updated_at, last_sign_in_at FROM profiles WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(profileRowColumns).
			AddRow(id.String(), "ada@example.com", []byte(`{"full_name":"Ada Lovelace","avatar_url":"https://cdn/a.png"}`), true, updated, signedIn))

	profile, err := repo.GetByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.True(t, profile.IsAdmin)
	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "https://cdn/a.png", profile.AvatarURL)
	assert.Equal(t, updated, profile.UpdatedAt)
	require.NotNil(t, profile.LastSignInAt)
	assert.Equal(t, signedIn, *profile.LastSignInAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestProfileRepository_GetAdminFlag(t *testing.T) {
	id := uuid.New()

	t.Run("admin", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db, zaptest.NewLogger(t))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT is_admin FROM profiles WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"is_admin"}).AddRow(true))

		isAdmin, err := repo.GetAdminFlag(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db, zaptest.NewLogger(t))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT is_admin FROM profiles")).
			WillReturnRows(sqlmock.NewRows([]string{"is_admin"}))

		_, err := repo.GetAdminFlag(context.Background(), id)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db, zaptest.NewLogger(t))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT is_admin FROM profiles")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetAdminFlag(context.Background(), id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, repositories.ErrNotFound)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestProfileRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles ORDER BY updated_at DESC")).
		WillReturnRows(sqlmock.NewRows(profileRowColumns).
			AddRow(uuid.New().String(), "b@example.com", []byte(`{}`), false, now, nil).
			AddRow(uuid.New().String(), "a@example.com", nil, true, now.Add(-time.Hour), nil))

	profiles, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "b", profiles[0].Name)
	assert.Nil(t, profiles[0].LastSignInAt)
	assert.True(t, profiles[1].IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_List_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles")).
		WillReturnRows(sqlmock.NewRows(profileRowColumns))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestProfileRepository_UpdateMetadata(t *testing.T) {
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db, zaptest.NewLogger(t))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET raw_user_meta_data = $1, updated_at = $2 WHERE id = $3")).
			WithArgs([]byte(`{"name":"Grace"}`), sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateMetadata(context.Background(), id, map[string]interface{}{"name": "Grace"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProfileRepository(db, zaptest.NewLogger(t))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET raw_user_meta_data")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateMetadata(context.Background(), id, nil)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProfileRepository_SetAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_admin = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(true, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetAdmin(context.Background(), id, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, zaptest.NewLogger(t))
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_InTransaction(t *testing.T) {
	id := uuid.New()

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger := zaptest.NewLogger(t)
		repo := NewProfileRepository(db, logger)
		tm := NewTransactionManager(db, logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET raw_user_meta_data")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			return repo.UpdateMetadata(ctx, id, map[string]interface{}{"name": "Ada"})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback with bound repository", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger := zaptest.NewLogger(t)
		repo := NewProfileRepository(db, logger)
		tm := NewTransactionManager(db, logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_admin")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			return repo.WithTx(tx).SetAdmin(context.Background(), id, true)
		})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zaptest.NewLogger(t))
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db := WrapDB(sqlDB, zaptest.NewLogger(t))

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	require.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
