package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStoreOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres", func(t *testing.T) {
		opts, rdb, err := tokenStoreOptions(ctx, &config.Config{TokenStore: config.TokenStorePostgres})
		require.NoError(t, err)
		assert.Empty(t, opts)
		assert.Nil(t, rdb)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		opts, rdb, err := tokenStoreOptions(ctx, &config.Config{TokenStore: config.TokenStoreRedis, RedisAddr: mr.Addr()})
		require.NoError(t, err)
		require.NotNil(t, rdb)
		defer rdb.Close()
		assert.Len(t, opts, 1)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, _, err := tokenStoreOptions(ctx, &config.Config{TokenStore: config.TokenStoreRedis, RedisAddr: addr})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := tokenStoreOptions(ctx, &config.Config{TokenStore: "mongo"})
		assert.Error(t, err)
	})
}

func TestNewMailer(t *testing.T) {
	_, ok := newMailer(&config.Config{}, logging.Nop{}).(*mail.NopMailer)
	assert.True(t, ok)

	_, ok = newMailer(&config.Config{SendGridAPIKey: "SG.key", MailFrom: "a@b.co"}, logging.Nop{}).(*mail.SendGridMailer)
	assert.True(t, ok)
}

func TestNewApp_DBErrors(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })

	openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	_, err := NewApp(context.Background(), &config.Config{})
	assert.ErrorContains(t, err, "db init error")

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	openDB = func(string) (*sql.DB, error) { return db, nil }
	_, err = NewApp(context.Background(), &config.Config{})
	assert.ErrorContains(t, err, "db ping error")
	assert.NoError(t, mock.ExpectationsWereMet())
}
