package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/pawfect/pkg/models"
)

const petColumns = `pet_id, name, species, breed, age, sex, status, description, created`

func (s *Store) GetPet(ctx context.Context, id int64) (*models.Pet, error) {
	var p models.Pet
	if err := s.conn.Get(ctx, &p, `SELECT `+petColumns+` FROM pets WHERE pet_id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPets(ctx context.Context) ([]models.Pet, error) {
	out := []models.Pet{}
	if err := s.conn.Select(ctx, &out, `SELECT `+petColumns+` FROM pets ORDER BY pet_id`); err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return out, nil
}
