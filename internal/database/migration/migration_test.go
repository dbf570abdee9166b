package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const checkQuery = "SELECT to_regclass"

func TestEnsureMigrated(t *testing.T) {
	t.Run("skips when schema exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(checkQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = EnsureMigrated(context.Background(), db, zap.New(core), "db.local")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 1, logs.FilterField(zap.String("event", "db_migration_skip")).Len())
	})

	t.Run("applies every step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(checkQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, step := range steps {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		err = EnsureMigrated(context.Background(), db, zap.New(core), "db.local")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, len(steps), logs.FilterField(zap.String("event", "db_migration_step")).Len())
		assert.Equal(t, 1, logs.FilterField(zap.String("event", "db_migration_success")).Len())
	})

	t.Run("stops at failing step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(checkQuery).
			WithArgs(sentinelTable).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(context.Background(), db, zap.New(core), "db.local")

		assert.ErrorContains(t, err, steps[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
		failed := logs.FilterField(zap.String("event", "db_migration_failed"))
		require.Equal(t, 1, failed.Len())
		assert.Equal(t, zap.ErrorLevel, failed.All()[0].Level)
	})

	t.Run("check query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(checkQuery).WillReturnError(errors.New("no route to host"))

		err = EnsureMigrated(context.Background(), db, zap.NewNop(), "db.local")

		assert.ErrorContains(t, err, "failed to check sentinel table")
	})
}
