package sqlstore

import (
	"time"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/db"
	"github.com/garnizeh/pawfect/pkg/repository"
)

// Store implements the repository interfaces on top of the DB wrapper. The
// same queries serve SQLite and Postgres; placeholders are rebound by db.DB.
type Store struct {
	conn   *db.DB
	logger *zap.Logger
}

var _ repository.UserRepo = (*Store)(nil)
var _ repository.AppointmentRepo = (*Store)(nil)
var _ repository.PetRepo = (*Store)(nil)
var _ repository.AdoptionRepo = (*Store)(nil)

func New(conn *db.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{conn: conn, logger: logger}
}

// nowFunc is replaced in tests that assert on timestamps.
var nowFunc = func() time.Time { return time.Now() }

func now() int64 {
	return nowFunc().UTC().UnixMilli()
}
