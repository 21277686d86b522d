package sqlstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/pkg/models"
)

func (s *Store) CreateAdoption(ctx context.Context, a *models.Adoption) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("adoption is nil")
	}
	if a.Status == "" {
		a.Status = models.AdoptionPending
	}
	if a.DateRequested == 0 {
		a.DateRequested = now()
	}

	var id int64
	err := s.conn.QueryRow(ctx,
		`INSERT INTO adoptions (pet_id, user_id, date_requested, purpose_of_adoption, status)
		 VALUES (?, ?, ?, ?, ?) RETURNING adoption_id`,
		a.PetID, a.UserID, a.DateRequested, a.PurposeOfAdoption, a.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert adoption: %w", err)
	}
	a.AdoptionID = id
	s.logger.Debug("adoption stored", zap.Int64("adoption_id", id), zap.Int64("pet_id", a.PetID), zap.Int64("user_id", a.UserID))
	return id, nil
}

func (s *Store) ListAdoptionsByUser(ctx context.Context, userID int64) ([]models.Adoption, error) {
	out := []models.Adoption{}
	err := s.conn.Select(ctx, &out,
		`SELECT adoption_id, pet_id, user_id, date_requested, purpose_of_adoption, status
		 FROM adoptions WHERE user_id = ? ORDER BY adoption_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list adoptions: %w", err)
	}
	return out, nil
}
