package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/garnizeh/pawfect/api"
	"github.com/garnizeh/pawfect/internal/adoption"
	"github.com/garnizeh/pawfect/internal/auth"
	"github.com/garnizeh/pawfect/internal/mail"
	"github.com/garnizeh/pawfect/pkg/repository/mock"
)

const testSecret = "testsecret"

type fakeSubmitter struct {
	mu  sync.Mutex
	out *adoption.Outcome
	err error
	got []adoption.Request
}

func (s *fakeSubmitter) Submit(ctx context.Context, req adoption.Request) (*adoption.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, req)
	return s.out, s.err
}

type fakeMailer struct {
	mu           sync.Mutex
	id           string
	err          error
	adoptions    []mail.AdoptionEmail
	appointments []mail.AppointmentEmail
}

func (m *fakeMailer) AdoptionEmail(ctx context.Context, e mail.AdoptionEmail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adoptions = append(m.adoptions, e)
	return m.id, m.err
}

func (m *fakeMailer) AppointmentEmail(ctx context.Context, e mail.AppointmentEmail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append(m.appointments, e)
	return m.id, m.err
}

type testEnv struct {
	router    http.Handler
	mocks     *mock.Mocks
	issuer    *auth.Issuer
	submitter *fakeSubmitter
	mailer    *fakeMailer
}

func newTestEnv(t *testing.T, opts ...func(*api.Deps)) *testEnv {
	t.Helper()
	e := &testEnv{
		mocks:     mock.NewMocks(),
		issuer:    auth.NewIssuer(testSecret, time.Hour),
		submitter: &fakeSubmitter{},
		mailer:    &fakeMailer{id: "<1@test>"},
	}
	d := api.Deps{
		Version:        "test",
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxBodyBytes:   10 << 20,
		DB:             pinger{},
		Issuer:         e.issuer,
		Users:          e.mocks.Users,
		Appointments:   e.mocks.Appointments,
		Pets:           e.mocks.Pets,
		Adoptions:      e.mocks.Adoptions,
		Submitter:      e.submitter,
		Mailer:         e.mailer,
	}
	for _, opt := range opts {
		opt(&d)
	}
	e.router = api.SetupRoutes(d)
	return e
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := e.issuer.Issue(userID, "pet owner")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do sends body as JSON, or verbatim when it is a string.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}
