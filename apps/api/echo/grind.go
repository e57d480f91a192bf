package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/grind"
	"github.com/prepdesk/prepdesk/core/user"
)

type grindApi struct {
	svc     *grind.Service
	userSvc *user.Service
}

func registerGrindAPI(g *echo.Group, jwt, subscribed echo.MiddlewareFunc, svc *grind.Service, userSvc *user.Service) {
	api := grindApi{svc: svc, userSvc: userSvc}

	gg := g.Group("/grinds", jwt)
	gg.GET("", api.query)
	gg.GET("/:id", api.retrieve)
	gg.POST("/:id/registration", api.register, subscribed)
	gg.DELETE("/:id/registration", api.unregister)

	g.GET("/me/grinds", api.userRegistrations, jwt)
}

// Handlers

func (api *grindApi) query(ctx echo.Context) error {
	grinds, err := api.svc.Upcoming(ctx.Request().Context(), ctx.QueryParam("subject"))
	if err != nil {
		return errors.Wrap(err, "querying upcoming grinds")
	}
	return ctx.JSON(http.StatusOK, grinds)
}

func (api *grindApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grind.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting grind")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *grindApi) register(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	g, err := api.svc.Register(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grind.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "registering for grind")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *grindApi) unregister(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Unregister(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		if errors.Cause(err) == grind.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unregistering from grind")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *grindApi) userRegistrations(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	regs, err := api.svc.UserRegistrations(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying user registrations")
	}
	return ctx.JSON(http.StatusOK, regs)
}
