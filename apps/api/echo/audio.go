package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/audio"
)

type audioApi struct {
	svc *audio.Service
}

func registerAudioAPI(g *echo.Group, jwt, subscribed echo.MiddlewareFunc, svc *audio.Service) {
	api := audioApi{svc: svc}

	g.GET("/questions/:id/audio", api.retrieve, jwt, subscribed)
}

// AudioResponse carries the audio question plus the flattened word index
// clients drive transcript highlighting with.
type AudioResponse struct {
	audio.AudioQuestion
	Words []audio.IndexedWord `json:"words"`
}

func (api *audioApi) retrieve(ctx echo.Context) error {
	aq, ix, err := api.svc.GetForQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == audio.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting audio question")
	}
	return ctx.JSON(http.StatusOK, AudioResponse{AudioQuestion: aq, Words: ix.Words()})
}
