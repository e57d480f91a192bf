package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	svc *user.Service
}

func registerUserAPI(g *echo.Group, jwt, limited echo.MiddlewareFunc, svc *user.Service) {
	api := userApi{svc: svc}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register, limited)
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword, limited)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("", api.query, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())

	// current-user endpoints
	mg := g.Group("/me", jwt)
	mg.GET("", api.me)
	mg.PUT("/subjects", api.selectSubjects)
	mg.PUT("/password", api.changePassword)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(core.Validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	var users []user.User
	var err error
	if filter.IsEmpty() {
		users, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		users, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		// `IsActive`, `Roles` and `Email` can only be changed by admin
		if data.IsActive != nil || data.Roles != nil || data.Email != "" {
			return errHttpForbidden
		}
	}

	if err := data.Validate(usr, core.Validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}

	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxUsr.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxUsr.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) selectSubjects(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.SelectSubjects
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectSubjects")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	usr, err := api.svc.ReplaceSubjects(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "replacing subjects")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangeUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangeUserPassword")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	usr, err := api.svc.ChangePassword(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "changing password")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
