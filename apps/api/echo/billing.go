package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/user"
)

// webhookSignatureHeader carries the hex HMAC-SHA256 signature of the raw
// webhook payload.
const webhookSignatureHeader = "Webhook-Signature"

type billingApi struct {
	svc     *billing.Service
	userSvc *user.Service
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, userSvc *user.Service) {
	api := billingApi{svc: svc, userSvc: userSvc}

	bg := g.Group("/billing")
	bg.GET("/subscription", api.subscription, jwt)
	bg.POST("/checkout", api.checkout, jwt)
	bg.POST("/portal", api.portal, jwt)

	// authenticated by signature, not JWT
	bg.POST("/webhook", api.webhook)
}

// Handlers

func (api *billingApi) subscription(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.GetForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting subscription")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *billingApi) checkout(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sess, err := api.svc.Checkout(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "creating checkout session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *billingApi) portal(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.Portal(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating portal session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *billingApi) webhook(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook payload")
	}

	signature := ctx.Request().Header.Get(webhookSignatureHeader)
	if err := api.svc.HandleWebhook(ctx.Request().Context(), payload, signature); err != nil {
		return errors.Wrap(err, "handling webhook")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "received"})
}
