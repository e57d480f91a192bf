package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/timetable"
	"github.com/prepdesk/prepdesk/core/user"
)

type timetableApi struct {
	examSvc *exam.Service
	userSvc *user.Service
}

func registerTimetableAPI(g *echo.Group, jwt echo.MiddlewareFunc, examSvc *exam.Service, userSvc *user.Service) {
	api := timetableApi{examSvc: examSvc, userSvc: userSvc}

	g.GET("/timetable", api.retrieve, jwt)
}

type TimetableResponse struct {
	Days     []timetable.Day    `json:"days"`
	Insights timetable.Insights `json:"insights"`
}

// retrieve returns the user's personal slice of the official exam timetable:
// only the sittings of their selected subjects, grouped per day.
func (api *timetableApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	all, err := api.examSvc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}

	selected := make(map[string]struct{}, len(usr.SubjectIDs))
	for _, id := range usr.SubjectIDs {
		selected[id] = struct{}{}
	}
	subjects := make([]exam.Subject, 0, len(usr.SubjectIDs))
	for _, subj := range all {
		if _, ok := selected[subj.ID]; ok {
			subjects = append(subjects, subj)
		}
	}

	matched := timetable.Match(timetable.Table(core.Conf.TimetableYear), subjects)
	days := timetable.GroupByDay(matched)
	return ctx.JSON(http.StatusOK, TimetableResponse{
		Days:     days,
		Insights: timetable.Summarize(days),
	})
}
