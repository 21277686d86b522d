package mock

import (
	"context"
	"sync"

	"github.com/garnizeh/pawfect/pkg/models"
)

// Mocks bundles in-memory repositories for handler and service tests.
type Mocks struct {
	Users        *UserRepo
	Appointments *AppointmentRepo
	Pets         *PetRepo
	Adoptions    *AdoptionRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Users:        &UserRepo{},
		Appointments: &AppointmentRepo{},
		Pets:         &PetRepo{},
		Adoptions:    &AdoptionRepo{},
	}
}

type UserRepo struct {
	mu     sync.Mutex
	Stored []models.User
	// Err, when set, is returned by every method.
	Err       error
	CreateErr error
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	stored := *u
	stored.UserID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, stored)
	return stored.UserID, nil
}

func (m *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].UserID == id {
			u := m.Stored[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].Email == email {
			u := m.Stored[i]
			return &u, nil
		}
	}
	return nil, nil
}

type AppointmentRepo struct {
	mu     sync.Mutex
	Stored []models.Appointment
	// Views is returned as-is by ListAppointments.
	Views []models.AppointmentView
	Err   error
}

func (m *AppointmentRepo) CreateAppointment(ctx context.Context, a *models.Appointment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	stored := *a
	stored.AppointmentID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, stored)
	return stored.AppointmentID, nil
}

func (m *AppointmentRepo) UpdateReview(ctx context.Context, id int64, review string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].AppointmentID == id {
			m.Stored[i].Review = review
			return 1, nil
		}
	}
	return 0, nil
}

func (m *AppointmentRepo) ListAppointments(ctx context.Context) ([]models.AppointmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Views, nil
}

type PetRepo struct {
	mu     sync.Mutex
	Stored []models.Pet
	Err    error
}

func (m *PetRepo) GetPet(ctx context.Context, id int64) (*models.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Stored {
		if m.Stored[i].PetID == id {
			p := m.Stored[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *PetRepo) ListPets(ctx context.Context) ([]models.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Pet(nil), m.Stored...), nil
}

type AdoptionRepo struct {
	mu     sync.Mutex
	Stored []models.Adoption
	Err    error
}

func (m *AdoptionRepo) CreateAdoption(ctx context.Context, a *models.Adoption) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	stored := *a
	stored.AdoptionID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, stored)
	return stored.AdoptionID, nil
}

func (m *AdoptionRepo) ListAdoptionsByUser(ctx context.Context, userID int64) ([]models.Adoption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Adoption
	for _, a := range m.Stored {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Count returns the number of stored adoptions.
func (m *AdoptionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Stored)
}
