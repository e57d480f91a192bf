package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/user"
)

type examApi struct {
	svc     *exam.Service
	userSvc *user.Service
}

func registerExamAPI(g *echo.Group, jwt, subscribed echo.MiddlewareFunc, svc *exam.Service, userSvc *user.Service) {
	api := examApi{svc: svc, userSvc: userSvc}

	sg := g.Group("/subjects", jwt)
	sg.GET("", api.querySubjects)
	sg.GET("/:id/topics", api.queryTopics)

	qg := g.Group("/questions", jwt)
	qg.GET("", api.search, subscribed)
	qg.GET("/:id", api.retrieveQuestion)
	qg.POST("/:id/completion", api.markCompleted)
	qg.DELETE("/:id/completion", api.unmarkCompleted)

	g.GET("/stats", api.stats, jwt, subscribed)
}

// Handlers

func (api *examApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []exam.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *examApi) queryTopics(ctx echo.Context) error {
	topics, err := api.svc.Topics(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == exam.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying topics")
	}
	if topics == nil {
		topics = []exam.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *examApi) search(ctx echo.Context) error {
	var filter exam.SearchFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SearchFilter")
	}

	page, err := api.svc.Search(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching questions")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *examApi) retrieveQuestion(ctx echo.Context) error {
	q, err := api.svc.GetQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == exam.ErrQuestionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *examApi) markCompleted(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkCompleted(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == exam.ErrQuestionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking question completed")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *examApi) unmarkCompleted(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.UnmarkCompleted(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		if errors.Cause(err) == exam.ErrQuestionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unmarking question completed")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// stats reports completion progress over the requested subjects, defaulting
// to the user's selected subjects.
func (api *examApi) stats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subjectIDs := ctx.QueryParams()["subject"]
	if len(subjectIDs) == 0 {
		subjectIDs = usr.SubjectIDs
	}

	stats, err := api.svc.Stats(ctx.Request().Context(), usr.ID, subjectIDs)
	if err != nil {
		return errors.Wrap(err, "querying stats")
	}
	if stats == nil {
		stats = []exam.SubjectStats{}
	}
	return ctx.JSON(http.StatusOK, stats)
}
