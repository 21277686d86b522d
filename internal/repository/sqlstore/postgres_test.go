package sqlstore_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/garnizeh/pawfect/internal/db"
	"github.com/garnizeh/pawfect/internal/repository/sqlstore"
	"github.com/garnizeh/pawfect/pkg/models"
)

func newMockStore(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqlstore.New(dbpkg.Wrap(conn, dbpkg.DriverPostgres), nil), mock
}

func TestPostgres_CreateAdoptionUsesDollarPlaceholders(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5) RETURNING adoption_id`)).
		WithArgs(int64(3), int64(9), int64(1700000000000), "purpose", "Pending").
		WillReturnRows(sqlmock.NewRows([]string{"adoption_id"}).AddRow(int64(41)))

	id, err := store.CreateAdoption(context.Background(), &models.Adoption{
		PetID: 3, UserID: 9, DateRequested: 1700000000000, PurposeOfAdoption: "purpose",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 41, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateReview(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE appointments SET review = $1 WHERE appointment_id = $2`)).
		WithArgs("ok", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := store.UpdateReview(context.Background(), 5, "ok")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetPetError(t *testing.T) {
	store, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM pets WHERE pet_id = $1`)).
		WithArgs(int64(2)).
		WillReturnError(boom)

	p, err := store.GetPet(context.Background(), 2)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE user_id = $1`)).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	u, err := store.GetByID(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}
