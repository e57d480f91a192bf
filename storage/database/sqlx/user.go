package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type dbUser struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Onboarded    bool           `db:"onboarded"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (u dbUser) toUser() user.User {
	usr := user.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Onboarded:    u.Onboarded,
		Roles:        u.Roles,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
	usr.SetActive(u.IsActive)
	if u.LastLogin.Valid {
		usr.LastLogin = u.LastLogin.Time.UTC()
	}
	return usr
}

const userColumns = `id, name, email, is_active, onboarded, roles, password_hash, created_at, updated_at, last_login`

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND id <> ALL($2))`
	if err := repo.db.GetContext(ctx, &exists, query, email, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO "user" (name, email, is_active, onboarded, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		usr.Name, usr.Email, !usr.Deactivated(), usr.Onboarded, pq.Array(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []dbUser
	query := fmt.Sprintf(`SELECT %s FROM "user" ORDER BY created_at`, userColumns)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.toUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if !validUUID(id) {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row dbUser
	query := fmt.Sprintf(`SELECT %s FROM "user" WHERE %s`, userColumns, where)
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}

	usr := row.toUser()
	subjectIDs, err := repo.getSubjectIDs(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}
	usr.SubjectIDs = subjectIDs
	return usr, nil
}

func (repo userRepository) getSubjectIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	query := `SELECT subject_id FROM user_subject WHERE user_id = $1 ORDER BY subject_id`
	if err := repo.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user subjects")
	}
	return ids, nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if filter.Roles != nil {
		args = append(args, pq.Array(filter.Roles))
		where = append(where, fmt.Sprintf("roles && $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM "user"`, userColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return repo.toUsers(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	if !validUUID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}

	// profile updates carry no hash; it must reach the driver as NULL
	// (not an empty bytea) so COALESCE keeps the stored one
	var passwordHash interface{}
	if len(usr.PasswordHash) > 0 {
		passwordHash = usr.PasswordHash
	}

	lastLogin := sql.NullTime{Time: usr.LastLogin, Valid: !usr.LastLogin.IsZero()}
	query := `
		UPDATE "user" SET
			name          = COALESCE(NULLIF($2, ''), name),
			email         = COALESCE(NULLIF($3, ''), email),
			roles         = CASE WHEN $4::text[] IS NULL THEN roles ELSE $4::text[] END,
			password_hash = COALESCE($5, password_hash),
			is_active     = COALESCE($6, is_active),
			updated_at    = COALESCE($7, updated_at),
			last_login    = COALESCE($8, last_login)
		WHERE id = $1`
	updatedAt := sql.NullTime{Time: usr.UpdatedAt, Valid: !usr.UpdatedAt.IsZero()}
	res, err := repo.db.ExecContext(
		ctx, query,
		usr.ID, usr.Name, usr.Email, pq.Array(usr.Roles), passwordHash,
		isActive, updatedAt, lastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) ReplaceUserSubjects(ctx context.Context, userID string, subjectIDs []string) (user.User, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_subject WHERE user_id = $1`, userID); err != nil {
		return user.User{}, errors.Wrap(err, "clearing user subjects")
	}
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(
			ctx, `INSERT INTO user_subject (user_id, subject_id) VALUES ($1, $2)`, userID, subjectID,
		); err != nil {
			return user.User{}, errors.Wrap(err, "inserting user subject")
		}
	}

	res, err := tx.ExecContext(
		ctx, `UPDATE "user" SET onboarded = TRUE, updated_at = now() WHERE id = $1`, userID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "marking user onboarded")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return user.User{}, errors.Wrap(err, "committing transaction")
	}
	return repo.GetUserByID(ctx, userID)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	ids = filterUUIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}

func (repo userRepository) toUsers(rows []dbUser) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users
}
