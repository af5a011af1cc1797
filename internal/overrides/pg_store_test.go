package overrides

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPgStore(t *testing.T) (*PgStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgStore(mock, "bellhartBookings", zap.NewNop()), mock
}

func TestPgStoreInit(t *testing.T) {
	store, mock := newTestPgStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS override_blobs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgStoreLoadMissingRow(t *testing.T) {
	store, mock := newTestPgStore(t)
	mock.ExpectQuery("SELECT data FROM override_blobs").
		WithArgs("bellhartBookings").
		WillReturnError(pgx.ErrNoRows)

	overrides, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, overrides)
	assert.Empty(t, overrides)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgStoreRoundTrip(t *testing.T) {
	store, mock := newTestPgStore(t)
	ctx := context.Background()

	want := sampleOverrides()
	blob, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO override_blobs").
		WithArgs("bellhartBookings", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT data FROM override_blobs").
		WithArgs("bellhartBookings").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(blob))

	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgStoreCorruptBlob(t *testing.T) {
	store, mock := newTestPgStore(t)
	mock.ExpectQuery("SELECT data FROM override_blobs").
		WithArgs("bellhartBookings").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte("{not json")))

	overrides, err := store.Load(context.Background())
	require.NoError(t, err, "corrupt blobs fail soft")
	assert.Empty(t, overrides)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgStoreBackendErrors(t *testing.T) {
	store, mock := newTestPgStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT data FROM override_blobs").
		WithArgs("bellhartBookings").
		WillReturnError(assert.AnError)
	_, err := store.Load(ctx)
	assert.Error(t, err, "transport failures surface to the service")

	mock.ExpectExec("INSERT INTO override_blobs").
		WithArgs("bellhartBookings", pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	assert.Error(t, store.Save(ctx, sampleOverrides()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
