package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/pawfect/pkg/models"
)

const userColumns = `user_id, first_name, last_name, email, monthly_salary, birthdate, age, sex, address, password, role, created`

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}
	if u.Role == "" {
		u.Role = models.DefaultRole
	}
	if u.Created == 0 {
		u.Created = now()
	}

	var id int64
	err := s.conn.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, email, monthly_salary, birthdate, age, sex, address, password, role, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING user_id`,
		u.FirstName, u.LastName, u.Email, u.MonthlySalary, u.Birthdate, u.Age, u.Sex, u.Address, u.Password, u.Role, u.Created,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	u.UserID = id
	return id, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.conn.Get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn.Get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
