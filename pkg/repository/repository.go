package repository

import (
	"context"

	"github.com/garnizeh/pawfect/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Lookups return (nil, nil) when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AppointmentRepo interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) (int64, error)
	// UpdateReview reports the number of rows changed; zero means the
	// appointment does not exist.
	UpdateReview(ctx context.Context, id int64, review string) (int64, error)
	ListAppointments(ctx context.Context) ([]models.AppointmentView, error)
}

type PetRepo interface {
	GetPet(ctx context.Context, id int64) (*models.Pet, error)
	ListPets(ctx context.Context) ([]models.Pet, error)
}

type AdoptionRepo interface {
	CreateAdoption(ctx context.Context, a *models.Adoption) (int64, error)
	ListAdoptionsByUser(ctx context.Context, userID int64) ([]models.Adoption, error)
}
