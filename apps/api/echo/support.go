package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/support"
)

type supportApi struct {
	svc *support.Service
}

func registerSupportAPI(g *echo.Group, limited echo.MiddlewareFunc, svc *support.Service) {
	api := supportApi{svc: svc}

	sg := g.Group("/support", limited)
	sg.POST("/contact", api.contact)
	sg.POST("/feedback", api.feedback)
}

// Handlers

func (api *supportApi) contact(ctx echo.Context) error {
	return api.submit(ctx, support.KindContact)
}

func (api *supportApi) feedback(ctx echo.Context) error {
	return api.submit(ctx, support.KindFeedback)
}

func (api *supportApi) submit(ctx echo.Context, kind string) error {
	var data support.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), kind, ctx.RealIP(), data)
	if err != nil {
		return errors.Wrap(err, "submitting form")
	}
	return ctx.JSON(http.StatusCreated, sub)
}
