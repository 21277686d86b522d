package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/auth"
	"github.com/garnizeh/pawfect/pkg/models"
	"github.com/garnizeh/pawfect/pkg/repository"
)

// UserHandler serves registration, login, the current user and bookings.
type UserHandler struct {
	users        repository.UserRepo
	appointments repository.AppointmentRepo
	issuer       *auth.Issuer
	now          func() time.Time
}

func NewUserHandler(users repository.UserRepo, appointments repository.AppointmentRepo, issuer *auth.Issuer) *UserHandler {
	return &UserHandler{users: users, appointments: appointments, issuer: issuer, now: time.Now}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// MonthlySalary and Age accept both numbers and numeric strings, as
	// form inputs send them.
	MonthlySalary json.Number `json:"monthly_salary"`
	Birthdate     string      `json:"birthdate"`
	Age           json.Number `json:"age"`
	Sex           string      `json:"sex"`
	Address       string      `json:"address"`
	Password      string      `json:"password"`
}

func (req registerRequest) salary() float64 {
	f, _ := req.MonthlySalary.Float64()
	return f
}

func (req registerRequest) age() int {
	f, _ := req.Age.Float64()
	return int(f)
}

func (req registerRequest) complete() bool {
	return req.FirstName != "" && req.LastName != "" && req.Email != "" &&
		req.salary() > 0 && req.Birthdate != "" && req.age() > 0 &&
		req.Sex != "" && req.Password != ""
}

var allowedSex = map[string]bool{"male": true, "female": true, "other": true}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil || !req.complete() {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	sex := strings.ToLower(strings.TrimSpace(req.Sex))
	if !allowedSex[sex] {
		writeMessage(w, http.StatusBadRequest, "Sex must be male, female or other")
		return
	}

	ctx := r.Context()
	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		logger.Error("email check", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusBadRequest, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("hash password", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error inserting user")
		return
	}

	u := models.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		MonthlySalary: req.salary(),
		Birthdate:     req.Birthdate,
		Age:           req.age(),
		Sex:           sex,
		Password:      hash,
		Role:          models.DefaultRole,
		Created:       h.now().UTC().UnixMilli(),
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		u.Address = &addr
	}

	if _, err := h.users.CreateUser(ctx, &u); err != nil {
		logger.Error("insert user", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error inserting user")
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		logger.Error("login lookup", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if u == nil || !auth.CheckPassword(u.Password, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.issuer.Issue(u.UserID, u.Role)
	if err != nil {
		logger.Error("sign token", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		User: userSummary{
			UserID:    u.UserID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Role:      u.Role,
		},
	})
}

// Me returns the full user row for the bearer of the token.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		logger.Error("get user", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type bookingRequest struct {
	AppointmentType string `json:"appointment_type"`
	AppointmentDate string `json:"appointment_date"`
	TimeSchedule    string `json:"timeschedule"`
}

type bookingUser struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type bookingResponse struct {
	Message       string         `json:"message"`
	AppointmentID int64          `json:"appointment_id"`
	User          bookingUser    `json:"user"`
	Appointment   bookingRequest `json:"appointment"`
}

// Booking creates an appointment for the bearer of the token.
func (h *UserHandler) Booking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	err := decodeJSON(r, &req)
	if bodyTooLarge(w, err) {
		return
	}
	if err != nil || req.AppointmentType == "" || req.AppointmentDate == "" || req.TimeSchedule == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok || claims.UserID == 0 {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: User not logged in")
		return
	}

	ctx := r.Context()
	id, err := h.appointments.CreateAppointment(ctx, &models.Appointment{
		UserID:          claims.UserID,
		AppointmentType: req.AppointmentType,
		AppointmentDate: req.AppointmentDate,
		TimeSchedule:    req.TimeSchedule,
		Review:          models.ReviewPending,
		Created:         h.now().UTC().UnixMilli(),
	})
	if err != nil {
		logger.Error("insert appointment", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}

	u, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		logger.Error("booking user lookup", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	if u == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusCreated, bookingResponse{
		Message:       "Booking created successfully",
		AppointmentID: id,
		User: bookingUser{
			UserID:   u.UserID,
			FullName: u.FirstName + " " + u.LastName,
			Email:    u.Email,
		},
		Appointment: req,
	})
}
