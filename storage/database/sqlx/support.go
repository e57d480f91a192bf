package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/support"
)

type supportRepository struct {
	db *sqlx.DB
}

var _ support.Repository = (*supportRepository)(nil) // interface compliance check

func NewSupportRepository(db *sqlx.DB) *supportRepository {
	return &supportRepository{db: db}
}

func (repo supportRepository) CreateSubmission(ctx context.Context, sub support.Submission) (support.Submission, error) {
	query := `
		INSERT INTO support_submission (kind, name, email, subject, message, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		sub.Kind, sub.Name, sub.Email, sub.Subject, sub.Message, sub.ClientIP, sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return support.Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}
