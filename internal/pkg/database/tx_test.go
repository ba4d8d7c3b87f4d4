package database_test

import (
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/database/dbtest"
	"context"
	"errors"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	db := dbtest.Open(t, &widget{})
	tr := database.NewTransactor(db)
	ctx := context.Background()

	require.NoError(t, tr.WithinTx(ctx, func(ctx context.Context) error {
		return database.Conn(ctx, db).Create(&widget{Name: "kept"}).Error
	}))

	boom := errors.New("boom")
	err := tr.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, database.Conn(ctx, db).Create(&widget{Name: "dropped"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, db.Model(&widget{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"kept"}, names)
}

func TestWithinTx_NestedReusesOuter(t *testing.T) {
	db := dbtest.Open(t, &widget{})
	tr := database.NewTransactor(db)

	assert.False(t, database.InTx(context.Background()))
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, database.InTx(ctx))
		outer := database.Conn(ctx, db)
		return tr.WithinTx(ctx, func(ctx context.Context) error {
			assert.Same(t, outer, database.Conn(ctx, db))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestWithinTx_RetriesDeadlock(t *testing.T) {
	db := dbtest.Open(t)
	tr := database.NewTransactor(db)

	calls := 0
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &mysqldrv.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, database.IsRetryable(&mysqldrv.MySQLError{Number: 1205}))
	assert.False(t, database.IsRetryable(&mysqldrv.MySQLError{Number: 1062}))
	assert.False(t, database.IsRetryable(errors.New("other")))
}
