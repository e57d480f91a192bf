package support

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prepdesk/prepdesk/core"
)

// Submission kinds
const (
	KindContact  = "contact"
	KindFeedback = "feedback"
)

type (
	Submission struct {
		ID        string    `json:"id"`
		Kind      string    `json:"kind"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Subject   string    `json:"subject,omitempty"`
		Message   string    `json:"message"`
		ClientIP  string    `json:"-"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	// NewSubmission is a contact or feedback form payload.
	NewSubmission struct {
		Name    string `json:"name" validate:"required,max=120"`
		Email   string `json:"email" validate:"required,email"`
		Subject string `json:"subject" validate:"omitempty,max=200"`
		Message string `json:"message" validate:"required,min=10,max=4000"`
	}
)

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Message = core.CleanString(ns.Message)
	return validate.Struct(ns)
}
