package models

// User is a registered adopter or staff member. Password holds the bcrypt
// hash and is never serialized.
type User struct {
	UserID        int64   `json:"user_id" db:"user_id"`
	FirstName     string  `json:"first_name" db:"first_name"`
	LastName      string  `json:"last_name" db:"last_name"`
	Email         string  `json:"email" db:"email"`
	MonthlySalary float64 `json:"monthly_salary" db:"monthly_salary"`
	Birthdate     string  `json:"birthdate" db:"birthdate"`
	Age           int     `json:"age" db:"age"`
	Sex           string  `json:"sex" db:"sex"`
	Address       *string `json:"address" db:"address"`
	Password      string  `json:"-" db:"password"`
	Role          string  `json:"role" db:"role"`
	Created       int64   `json:"created" db:"created"`
}

const DefaultRole = "pet owner"

type Appointment struct {
	AppointmentID   int64  `json:"appointment_id" db:"appointment_id"`
	UserID          int64  `json:"user_id" db:"user_id"`
	AppointmentType string `json:"appointment_type" db:"appointment_type"`
	AppointmentDate string `json:"appointment_date" db:"appointment_date"`
	TimeSchedule    string `json:"timeschedule" db:"timeschedule"`
	Review          string `json:"review" db:"review"`
	Created         int64  `json:"created" db:"created"`
}

// ReviewPending is the review value of a freshly booked appointment.
const ReviewPending = "Pending"

// AppointmentView is an appointment joined with the user who booked it.
type AppointmentView struct {
	AppointmentID     int64  `json:"appointment_id" db:"appointment_id"`
	UserID            int64  `json:"user_id" db:"user_id"`
	FirstName         string `json:"first_name" db:"first_name"`
	LastName          string `json:"last_name" db:"last_name"`
	Email             string `json:"email" db:"email"`
	AppointmentSetter string `json:"appointmentSetter" db:"appointment_setter"`
	AppointmentType   string `json:"appointment_type" db:"appointment_type"`
	Review            string `json:"review" db:"review"`
	AppointmentDate   string `json:"appointment_date" db:"appointment_date"`
	TimeSchedule      string `json:"timeSchedule" db:"timeschedule"`
}

type Pet struct {
	PetID       int64  `json:"pet_id" db:"pet_id"`
	Name        string `json:"name" db:"name"`
	Species     string `json:"species" db:"species"`
	Breed       string `json:"breed" db:"breed"`
	Age         int    `json:"age" db:"age"`
	Sex         string `json:"sex" db:"sex"`
	Status      string `json:"status" db:"status"`
	Description string `json:"description" db:"description"`
	Created     int64  `json:"created" db:"created"`
}

type AdoptionStatus string

const (
	AdoptionPending  AdoptionStatus = "Pending"
	AdoptionApproved AdoptionStatus = "Approved"
	AdoptionRejected AdoptionStatus = "Rejected"
)

// Adoption is a persisted adoption request. Rows only exist for purposes
// the classifier accepted.
type Adoption struct {
	AdoptionID        int64          `json:"adoption_id" db:"adoption_id"`
	PetID             int64          `json:"pet_id" db:"pet_id"`
	UserID            int64          `json:"user_id" db:"user_id"`
	DateRequested     int64          `json:"date_requested" db:"date_requested"`
	PurposeOfAdoption string         `json:"purpose_of_adoption" db:"purpose_of_adoption"`
	Status            AdoptionStatus `json:"status" db:"status"`
}
