package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/pawfect/internal/auth"
	"github.com/garnizeh/pawfect/internal/metrics"
	"github.com/garnizeh/pawfect/pkg/repository"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Version        string
	BuildTime      string
	AllowedOrigins []string
	MaxBodyBytes   int64

	DB           Pinger
	Issuer       *auth.Issuer
	Users        repository.UserRepo
	Appointments repository.AppointmentRepo
	Pets         repository.PetRepo
	Adoptions    repository.AdoptionRepo
	Submitter    AdoptionSubmitter
	Mailer       Mailer
}

func SetupRoutes(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(metrics.InstrumentHandler)
	r.Use(CORSMiddleware(d.AllowedOrigins))
	r.Use(RecoveryMiddleware)
	r.Use(BodyLimitMiddleware(d.MaxBodyBytes))

	requireAuth := RequireAuth(d.Issuer)

	systemHandler := &SystemHandler{DB: d.DB}
	userHandler := NewUserHandler(d.Users, d.Appointments, d.Issuer)
	processHandler := NewProcessHandler(d.Submitter, d.Appointments, d.Adoptions)
	petHandler := NewPetHandler(d.Pets)
	emailHandler := NewEmailHandler(d.Mailer)

	// System endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(d.Version, d.BuildTime)).Methods(http.MethodGet)
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Users
	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost)
	users.HandleFunc("/login", userHandler.Login).Methods(http.MethodPost)
	users.Handle("/me", requireAuth(http.HandlerFunc(userHandler.Me))).Methods(http.MethodGet)
	users.Handle("/booking", requireAuth(http.HandlerFunc(userHandler.Booking))).Methods(http.MethodPost)

	// Process
	process := r.PathPrefix("/process").Subrouter()
	process.Handle("/adoption", requireAuth(http.HandlerFunc(processHandler.SubmitAdoption))).Methods(http.MethodPost)
	process.Handle("/adoptions", requireAuth(http.HandlerFunc(processHandler.ListAdoptions))).Methods(http.MethodGet)
	process.HandleFunc("/review/{id}", processHandler.UpdateReview).Methods(http.MethodPut)
	process.HandleFunc("/appointments", processHandler.ListAppointments).Methods(http.MethodGet)

	// Pets
	r.HandleFunc("/pets", petHandler.ListPets).Methods(http.MethodGet)
	r.HandleFunc("/pets/{id:[0-9]+}", petHandler.GetPet).Methods(http.MethodGet)

	// Email
	r.HandleFunc("/adoption/email", emailHandler.AdoptionEmail).Methods(http.MethodPost)
	r.HandleFunc("/appointment/email", emailHandler.AppointmentEmail).Methods(http.MethodPost)

	// Preflight requests must match a route for the middleware chain to run.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
