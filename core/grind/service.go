package grind

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("grind not found")
	ErrFull              = errors.New("this grind is fully booked")
	ErrAlreadyRegistered = errors.New("already registered for this grind")
	ErrAlreadyStarted    = errors.New("this grind has already started")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		QueryUpcomingGrinds(ctx context.Context, after time.Time, subjectID string) ([]Grind, error)
		GetGrindByID(ctx context.Context, id string) (Grind, error)
		// CreateRegistration inserts the registration and bumps the seat
		// counter in one atomic step. Returns ErrFull when no seat is left
		// and ErrAlreadyRegistered on a duplicate.
		CreateRegistration(ctx context.Context, reg Registration) error
		// DeleteRegistration frees the seat. Idempotent.
		DeleteRegistration(ctx context.Context, grindID, userID string) error
		QueryUserRegistrations(ctx context.Context, userID string) ([]Registration, error)
		// QueryDueReminders lists registrations of grinds starting within
		// (after, until] whose reminder has not been sent.
		QueryDueReminders(ctx context.Context, after, until time.Time) ([]Reminder, error)
		MarkReminderSent(ctx context.Context, grindID, userID string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// Upcoming lists grinds that have not started yet, optionally for one subject.
func (svc *Service) Upcoming(ctx context.Context, subjectID string) ([]Grind, error) {
	grinds, err := svc.repo.QueryUpcomingGrinds(ctx, nowFunc().UTC(), subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying upcoming grinds")
	}
	if grinds == nil {
		grinds = []Grind{}
	}
	return grinds, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Grind, error) {
	return svc.repo.GetGrindByID(ctx, id)
}

// Register books a seat for the user and sends the confirmation email.
func (svc *Service) Register(ctx context.Context, usr user.User, grindID string) (Grind, error) {
	g, err := svc.repo.GetGrindByID(ctx, grindID)
	if err != nil {
		return Grind{}, err
	}
	if g.Started(nowFunc().UTC()) {
		return Grind{}, core.NewValidationError(ErrAlreadyStarted)
	}
	if g.Full() {
		return Grind{}, core.NewValidationError(ErrFull)
	}

	reg := Registration{
		GrindID:   g.ID,
		UserID:    usr.ID,
		CreatedAt: nowFunc().UTC(),
	}
	if err := svc.repo.CreateRegistration(ctx, reg); err != nil {
		switch err {
		case ErrFull, ErrAlreadyRegistered:
			return Grind{}, core.NewValidationError(err)
		}
		return Grind{}, errors.Wrap(err, "creating registration")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "You're booked: " + g.Title,
		TemplateName: "grind_confirmation",
		TemplateData: struct {
			Name  string
			Grind Grind
		}{usr.Name, g},
	})

	return svc.repo.GetGrindByID(ctx, grindID)
}

// Unregister frees the user's seat. Unregistering twice is a no-op.
func (svc *Service) Unregister(ctx context.Context, usr user.User, grindID string) error {
	if _, err := svc.repo.GetGrindByID(ctx, grindID); err != nil {
		return err
	}
	return svc.repo.DeleteRegistration(ctx, grindID, usr.ID)
}

func (svc *Service) UserRegistrations(ctx context.Context, userID string) ([]Registration, error) {
	regs, err := svc.repo.QueryUserRegistrations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []Registration{}
	}
	return regs, nil
}

// SendDueReminders emails registrants of grinds starting within the window,
// once per registration. Returns the number of reminders sent.
func (svc *Service) SendDueReminders(ctx context.Context, window time.Duration) (int, error) {
	now := nowFunc().UTC()
	due, err := svc.repo.QueryDueReminders(ctx, now, now.Add(window))
	if err != nil {
		return 0, errors.Wrap(err, "querying due reminders")
	}

	sent := 0
	for _, rem := range due {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: rem.Name, Address: rem.Email}},
			Subject:      "Starting soon: " + rem.Grind.Title,
			TemplateName: "grind_reminder",
			TemplateData: struct {
				Name  string
				Grind Grind
			}{rem.Name, rem.Grind},
		})
		if err := svc.repo.MarkReminderSent(ctx, rem.Grind.ID, rem.UserID); err != nil {
			return sent, errors.Wrap(err, "marking reminder sent")
		}
		sent++
	}
	return sent, nil
}
