package mail

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/apperr"
)

const (
	TypeApproved = "approved"
	TypeRejected = "rejected"

	SubjectApproved    = "Adoption Approved ✅"
	SubjectRejected    = "Adoption Rejected ❌"
	SubjectAppointment = "Appointment Booked 📅"
)

// AdoptionEmail is the payload of an adoption outcome email. Nil names
// render as "null".
type AdoptionEmail struct {
	To       string  `json:"to"`
	UserName *string `json:"userName"`
	PetName  *string `json:"petName"`
	Type     string  `json:"type"`
}

// AppointmentEmail is the payload of a booking confirmation email.
type AppointmentEmail struct {
	To              string `json:"to"`
	UserName        string `json:"userName"`
	AppointmentType string `json:"appointment_type"`
	AppointmentDate string `json:"appointment_date"`
	TimeSchedule    string `json:"timeschedule"`
}

// Notifier renders templated emails and hands them to a Sender.
type Notifier struct {
	renderer *Renderer
	sender   Sender
	logger   *zap.Logger
}

func NewNotifier(r *Renderer, s Sender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{renderer: r, sender: s, logger: logger}
}

// AdoptionEmail sends the accepted template when e.Type is "approved" and
// the rejected template for any other type. It returns the delivery id.
func (n *Notifier) AdoptionEmail(ctx context.Context, e AdoptionEmail) (string, error) {
	if strings.TrimSpace(e.To) == "" {
		return "", apperr.New(apperr.KindValidation, "recipient is required")
	}

	tpl, subject := TemplateAdoptionRejected, SubjectRejected
	if e.Type == TypeApproved {
		tpl, subject = TemplateAdoptionAccepted, SubjectApproved
	}

	body, err := n.renderer.Render(tpl, map[string]any{
		"userName": e.UserName,
		"petName":  e.PetName,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "render email", err)
	}

	id, err := n.sender.Send(ctx, Message{To: e.To, Subject: subject, HTML: body})
	if err != nil {
		n.logger.Error("adoption email failed", zap.String("to", e.To), zap.String("type", e.Type), zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Wrap(apperr.KindDelivery, "send email", err)
		}
		return "", err
	}
	n.logger.Info("adoption email sent", zap.String("message_id", id), zap.String("to", e.To), zap.String("type", e.Type))
	return id, nil
}

// AppointmentEmail sends the booking confirmation template.
func (n *Notifier) AppointmentEmail(ctx context.Context, e AppointmentEmail) (string, error) {
	if strings.TrimSpace(e.To) == "" {
		return "", apperr.New(apperr.KindValidation, "recipient is required")
	}

	body, err := n.renderer.Render(TemplateAppointmentBooked, map[string]any{
		"userName":        e.UserName,
		"appointmentType": e.AppointmentType,
		"appointmentDate": e.AppointmentDate,
		"timeSchedule":    e.TimeSchedule,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "render email", err)
	}

	id, err := n.sender.Send(ctx, Message{To: e.To, Subject: SubjectAppointment, HTML: body})
	if err != nil {
		n.logger.Error("appointment email failed", zap.String("to", e.To), zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Wrap(apperr.KindDelivery, "send email", err)
		}
		return "", err
	}
	return id, nil
}
