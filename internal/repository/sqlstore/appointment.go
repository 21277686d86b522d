package sqlstore

import (
	"context"
	"fmt"

	"github.com/garnizeh/pawfect/pkg/models"
)

func (s *Store) CreateAppointment(ctx context.Context, a *models.Appointment) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("appointment is nil")
	}
	if a.Review == "" {
		a.Review = models.ReviewPending
	}
	if a.Created == 0 {
		a.Created = now()
	}

	var id int64
	err := s.conn.QueryRow(ctx,
		`INSERT INTO appointments (user_id, appointment_type, appointment_date, timeschedule, review, created)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING appointment_id`,
		a.UserID, a.AppointmentType, a.AppointmentDate, a.TimeSchedule, a.Review, a.Created,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	a.AppointmentID = id
	return id, nil
}

func (s *Store) UpdateReview(ctx context.Context, id int64, review string) (int64, error) {
	res, err := s.conn.Exec(ctx, `UPDATE appointments SET review = ? WHERE appointment_id = ?`, review, id)
	if err != nil {
		return 0, fmt.Errorf("update review: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) ListAppointments(ctx context.Context) ([]models.AppointmentView, error) {
	out := []models.AppointmentView{}
	err := s.conn.Select(ctx, &out, `
		SELECT a.appointment_id, a.user_id, u.first_name, u.last_name, u.email,
		       u.first_name || ' ' || u.last_name AS appointment_setter,
		       a.appointment_type, a.review, a.appointment_date, a.timeschedule
		FROM appointments a
		JOIN users u ON a.user_id = u.user_id
		ORDER BY a.appointment_id`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}
