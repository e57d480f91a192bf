package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
)

var (
	// errors
	ErrNotFound      = errors.New("user not found")
	ErrEmailExists   = errors.New("a user with this email already exists")
	ErrWrongPassword = errors.New("wrong password")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		// ReplaceUserSubjects atomically replaces the user's subject list and
		// marks them onboarded. All-or-nothing.
		ReplaceUserSubjects(ctx context.Context, userID string, subjectIDs []string) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a new student account and sends the welcome email.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Roles:     []string{RoleStudent},
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to " + core.Conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name},
	})
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		Roles:     uu.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

// ChangePassword verifies the current password before setting the new one.
func (svc *Service) ChangePassword(ctx context.Context, id string, cp ChangeUserPassword) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return User{}, core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "current_password", Error: ErrWrongPassword.Error()})
	}
	if err := usr.SetPassword(cp.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

// ReplaceSubjects atomically swaps the user's selected subjects (onboarding).
func (svc *Service) ReplaceSubjects(ctx context.Context, id string, ss SelectSubjects) (User, error) {
	return svc.repo.ReplaceUserSubjects(ctx, id, ss.SubjectIDs)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

// RequestPasswordReset emails a signed reset link to the account's address.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr.Deactivated() {
		return ErrNotFound
	}

	token := makeToken(usr)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{usr.Name, EncodeUID(usr), token},
	})
	return nil
}

// ResetPassword validates the emailed token and sets the new password.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr, nil); err != nil {
		return err
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}
