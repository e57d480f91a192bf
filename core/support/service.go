package support

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// Submit persists the form and forwards it to the support inbox.
func (svc *Service) Submit(ctx context.Context, kind, clientIP string, ns NewSubmission) (Submission, error) {
	sub := Submission{
		Kind:      kind,
		Name:      ns.Name,
		Email:     ns.Email,
		Subject:   ns.Subject,
		Message:   ns.Message,
		ClientIP:  clientIP,
		CreatedAt: time.Now().UTC(),
	}

	sub, err := svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, errors.Wrap(err, "creating submission")
	}

	subject := "New " + kind + " submission"
	if sub.Subject != "" {
		subject += ": " + sub.Subject
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{core.Conf.SupportEmail},
		Subject:      subject,
		TemplateName: "support_submission",
		TemplateData: struct{ Submission Submission }{sub},
	})
	return sub, nil
}
