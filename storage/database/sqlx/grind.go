package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/grind"
)

type grindRepository struct {
	db *sqlx.DB
}

var _ grind.Repository = (*grindRepository)(nil) // interface compliance check

func NewGrindRepository(db *sqlx.DB) *grindRepository {
	return &grindRepository{db: db}
}

type dbGrind struct {
	ID         string    `db:"id"`
	SubjectID  string    `db:"subject_id"`
	Title      string    `db:"title"`
	Tutor      string    `db:"tutor"`
	StartsAt   time.Time `db:"starts_at"`
	DurationMn int       `db:"duration_minutes"`
	Capacity   int       `db:"capacity"`
	Registered int       `db:"registered"`
}

func (g dbGrind) toGrind() grind.Grind {
	return grind.Grind{
		ID:         g.ID,
		SubjectID:  g.SubjectID,
		Title:      g.Title,
		Tutor:      g.Tutor,
		StartsAt:   g.StartsAt.UTC(),
		DurationMn: g.DurationMn,
		Capacity:   g.Capacity,
		Registered: g.Registered,
	}
}

const grindColumns = `id, subject_id, title, tutor, starts_at, duration_minutes, capacity, registered`

func (repo grindRepository) QueryUpcomingGrinds(ctx context.Context, after time.Time, subjectID string) ([]grind.Grind, error) {
	var rows []dbGrind
	if subjectID != "" && !validUUID(subjectID) {
		return []grind.Grind{}, nil
	}
	query := `
		SELECT ` + grindColumns + `
		FROM grind
		WHERE starts_at > $1 AND ($2 = '' OR subject_id = $2::uuid)
		ORDER BY starts_at, id`
	if err := repo.db.SelectContext(ctx, &rows, query, after, subjectID); err != nil {
		return nil, errors.Wrap(err, "querying upcoming grinds")
	}

	grinds := make([]grind.Grind, 0, len(rows))
	for _, row := range rows {
		grinds = append(grinds, row.toGrind())
	}
	return grinds, nil
}

func (repo grindRepository) GetGrindByID(ctx context.Context, id string) (grind.Grind, error) {
	if !validUUID(id) {
		return grind.Grind{}, grind.ErrNotFound
	}
	var row dbGrind
	query := `SELECT ` + grindColumns + ` FROM grind WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return grind.Grind{}, grind.ErrNotFound
		}
		return grind.Grind{}, errors.Wrap(err, "getting grind")
	}
	return row.toGrind(), nil
}

func (repo grindRepository) CreateRegistration(ctx context.Context, reg grind.Registration) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO grind_registration (grind_id, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, reg.GrindID, reg.UserID, reg.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return grind.ErrAlreadyRegistered
		}
		return errors.Wrap(err, "inserting registration")
	}

	// claim the seat; a concurrent registration that took the last one makes
	// this update match no row
	res, err := tx.ExecContext(
		ctx,
		`UPDATE grind SET registered = registered + 1 WHERE id = $1 AND (capacity = 0 OR registered < capacity)`,
		reg.GrindID,
	)
	if err != nil {
		return errors.Wrap(err, "claiming seat")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grind.ErrFull
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo grindRepository) DeleteRegistration(ctx context.Context, grindID, userID string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx, `DELETE FROM grind_registration WHERE grind_id = $1 AND user_id = $2`, grindID, userID,
	)
	if err != nil {
		return errors.Wrap(err, "deleting registration")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting registration")
	}
	if n == 0 {
		return nil // nothing to free
	}

	if _, err := tx.ExecContext(
		ctx, `UPDATE grind SET registered = GREATEST(registered - 1, 0) WHERE id = $1`, grindID,
	); err != nil {
		return errors.Wrap(err, "freeing seat")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo grindRepository) QueryUserRegistrations(ctx context.Context, userID string) ([]grind.Registration, error) {
	var rows []struct {
		GrindID      string    `db:"grind_id"`
		UserID       string    `db:"user_id"`
		CreatedAt    time.Time `db:"created_at"`
		ReminderSent bool      `db:"reminder_sent"`
	}
	query := `
		SELECT grind_id, user_id, created_at, reminder_sent
		FROM grind_registration
		WHERE user_id = $1
		ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user registrations")
	}

	regs := make([]grind.Registration, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, grind.Registration{
			GrindID:      row.GrindID,
			UserID:       row.UserID,
			CreatedAt:    row.CreatedAt.UTC(),
			ReminderSent: row.ReminderSent,
		})
	}
	return regs, nil
}

func (repo grindRepository) QueryDueReminders(ctx context.Context, after, until time.Time) ([]grind.Reminder, error) {
	var rows []struct {
		dbGrind
		UserID string `db:"reg_user_id"`
		Name   string `db:"reg_name"`
		Email  string `db:"reg_email"`
	}
	query := `
		SELECT g.id, g.subject_id, g.title, g.tutor, g.starts_at, g.duration_minutes, g.capacity, g.registered,
		       u.id AS reg_user_id, u.name AS reg_name, u.email AS reg_email
		FROM grind_registration r
		JOIN grind g ON g.id = r.grind_id
		JOIN "user" u ON u.id = r.user_id
		WHERE NOT r.reminder_sent AND g.starts_at > $1 AND g.starts_at <= $2
		ORDER BY g.starts_at, g.id`
	if err := repo.db.SelectContext(ctx, &rows, query, after, until); err != nil {
		return nil, errors.Wrap(err, "querying due reminders")
	}

	reminders := make([]grind.Reminder, 0, len(rows))
	for _, row := range rows {
		reminders = append(reminders, grind.Reminder{
			Grind:  row.toGrind(),
			UserID: row.UserID,
			Name:   row.Name,
			Email:  row.Email,
		})
	}
	return reminders, nil
}

func (repo grindRepository) MarkReminderSent(ctx context.Context, grindID, userID string) error {
	query := `UPDATE grind_registration SET reminder_sent = TRUE WHERE grind_id = $1 AND user_id = $2`
	_, err := repo.db.ExecContext(ctx, query, grindID, userID)
	return errors.Wrap(err, "marking reminder sent")
}
