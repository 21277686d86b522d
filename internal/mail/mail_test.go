package mail_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/garnizeh/pawfect/internal/apperr"
	"github.com/garnizeh/pawfect/internal/mail"
)

func strPtr(s string) *string { return &s }

func TestRenderer_Placeholders(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/t.html": {Data: []byte("Hi {{userName}}, meet {{petName}}. {{petName}} waits. {{unknown}} {{ userName }}")},
	}
	r, err := mail.NewRenderer(fsys)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{
			"all values",
			map[string]any{"userName": "Reyes", "petName": strPtr("Buddy")},
			"Hi Reyes, meet Buddy. Buddy waits. {{unknown}} {{ userName }}",
		},
		{
			"nil values render null",
			map[string]any{"userName": (*string)(nil), "petName": nil},
			"Hi null, meet null. null waits. {{unknown}} {{ userName }}",
		},
		{
			"missing keys stay verbatim",
			map[string]any{},
			"Hi {{userName}}, meet {{petName}}. {{petName}} waits. {{unknown}} {{ userName }}",
		},
		{
			"values are escaped",
			map[string]any{"userName": "<b>x</b>", "petName": 7},
			"Hi &lt;b&gt;x&lt;/b&gt;, meet 7. 7 waits. {{unknown}} {{ userName }}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render("t.html", tt.values)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q\nwant %q", got, tt.want)
			}
		})
	}

	if _, err := r.Render("missing.html", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestRenderer_EmbeddedTemplates(t *testing.T) {
	r, err := mail.NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for _, name := range []string{mail.TemplateAdoptionAccepted, mail.TemplateAdoptionRejected, mail.TemplateAppointmentBooked} {
		out, err := r.Render(name, map[string]any{"userName": "Reyes", "petName": "Buddy", "appointmentType": "Checkup", "appointmentDate": "2025-10-01", "timeSchedule": "9:00 AM"})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if strings.Contains(out, "{{") {
			t.Fatalf("%s: unreplaced placeholder in %s", name, out)
		}
		if !strings.Contains(out, "Reyes") {
			t.Fatalf("%s: user name missing", name)
		}
	}
}

type captureSender struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (c *captureSender) Send(ctx context.Context, msg mail.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.msgs = append(c.msgs, msg)
	return "<id-1@test>", nil
}

func TestNotifier_AdoptionEmail(t *testing.T) {
	r, err := mail.NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	tests := []struct {
		typ         string
		wantSubject string
		wantText    string
	}{
		{"approved", mail.SubjectApproved, "has been approved"},
		{"rejected", mail.SubjectRejected, "unable to approve"},
		{"anything", mail.SubjectRejected, "unable to approve"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s := &captureSender{}
			n := mail.NewNotifier(r, s, nil)
			id, err := n.AdoptionEmail(context.Background(), mail.AdoptionEmail{To: "a@b.c", UserName: strPtr("Reyes"), PetName: nil, Type: tt.typ})
			if err != nil {
				t.Fatalf("AdoptionEmail: %v", err)
			}
			if id != "<id-1@test>" {
				t.Fatalf("unexpected id %q", id)
			}
			if len(s.msgs) != 1 {
				t.Fatalf("expected one message, got %d", len(s.msgs))
			}
			m := s.msgs[0]
			if m.To != "a@b.c" || m.Subject != tt.wantSubject {
				t.Fatalf("unexpected message %+v", m)
			}
			if !strings.Contains(m.HTML, tt.wantText) || !strings.Contains(m.HTML, "<strong>null</strong>") {
				t.Fatalf("unexpected body %s", m.HTML)
			}
		})
	}
}

func TestNotifier_Errors(t *testing.T) {
	r, err := mail.NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	n := mail.NewNotifier(r, &captureSender{}, nil)
	if _, err := n.AdoptionEmail(context.Background(), mail.AdoptionEmail{Type: "rejected"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing recipient, got %v", err)
	}

	n = mail.NewNotifier(r, &captureSender{err: errors.New("535 auth failed")}, nil)
	if _, err := n.AdoptionEmail(context.Background(), mail.AdoptionEmail{To: "a@b.c"}); !apperr.Is(err, apperr.KindDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestNotifier_AppointmentEmail(t *testing.T) {
	r, err := mail.NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	s := &captureSender{}
	n := mail.NewNotifier(r, s, nil)

	if _, err := n.AppointmentEmail(context.Background(), mail.AppointmentEmail{
		To: "a@b.c", UserName: "Ana Reyes", AppointmentType: "Grooming", AppointmentDate: "2025-10-01", TimeSchedule: "2:00 PM",
	}); err != nil {
		t.Fatalf("AppointmentEmail: %v", err)
	}
	if len(s.msgs) != 1 || s.msgs[0].Subject != mail.SubjectAppointment || !strings.Contains(s.msgs[0].HTML, "Grooming") {
		t.Fatalf("unexpected messages %+v", s.msgs)
	}
}

func TestSMTPSender_DeliveryErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := mail.NewSMTPSender(mail.SMTPConfig{Host: "127.0.0.1", Port: 1, Username: "noreply@example.com", Timeout: time.Second})

	if _, err := s.Send(ctx, mail.Message{To: "not an address", Subject: "x", HTML: "<p>x</p>"}); !apperr.Is(err, apperr.KindDelivery) {
		t.Fatalf("expected delivery error for bad recipient, got %v", err)
	}
	if _, err := s.Send(ctx, mail.Message{To: "a@example.com", Subject: "x", HTML: "<p>x</p>"}); !apperr.Is(err, apperr.KindDelivery) {
		t.Fatalf("expected delivery error for unreachable server, got %v", err)
	}
}

func TestLogSender(t *testing.T) {
	s := &mail.LogSender{}
	id, err := s.Send(context.Background(), mail.Message{To: "a@b.c"})
	if err != nil || !strings.HasSuffix(id, "@pawfect.local>") {
		t.Fatalf("unexpected id %q err %v", id, err)
	}
	if _, err := s.Send(context.Background(), mail.Message{}); !apperr.Is(err, apperr.KindDelivery) {
		t.Fatalf("expected delivery error without recipient, got %v", err)
	}
}
