package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core/audio"
	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/user"
)

func TestAudioApi_retrieve(t *testing.T) {
	env := newTestEnv(t)

	irish := env.exams.SeedSubject(exam.Subject{Name: "Irish", Level: exam.LevelHigher})
	q := env.exams.SeedQuestion(exam.Question{SubjectID: irish.ID, Year: 2024, Paper: "1", Number: 3, HasAudio: true})
	env.audios.SeedAudioQuestion(audio.AudioQuestion{
		QuestionID: q.ID,
		AudioURL:   "https://cdn.test/audio/" + q.ID + ".mp3",
		Transcript: audio.Transcript{Sentences: []audio.Sentence{
			{Words: []audio.Word{
				{Text: "Dia", Start: 0, End: 400},
				{Text: "duit", Start: 400, End: 900},
			}},
			{Words: []audio.Word{
				{Text: "Conas", Start: 1200, End: 1600},
				{Text: "atá", Start: 1600, End: 1900},
				{Text: "tú", Start: 1900, End: 2300},
			}},
		}},
	})

	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("requires a subscription", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+q.ID+"/audio", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	})

	env.subscribe(t, student.ID)

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+q.ID+"/audio", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp AudioResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, q.ID, resp.QuestionID)
		assert.NotEmpty(t, resp.AudioURL)

		// flattened words keep playback order and carry sentence indices
		if assert.Len(t, resp.Words, 5) {
			assert.Equal(t, "Dia", resp.Words[0].Text)
			assert.Equal(t, 0, resp.Words[0].Sentence)
			assert.Equal(t, "Conas", resp.Words[2].Text)
			assert.Equal(t, 1, resp.Words[2].Sentence)
			assert.Equal(t, 4, resp.Words[4].Position)
		}
	})

	t.Run("question without audio is a 404", func(t *testing.T) {
		plain := env.exams.SeedQuestion(exam.Question{SubjectID: irish.ID, Year: 2024, Paper: "1", Number: 4})
		req, rec := newAuthRequest(http.MethodGet, "/v1/questions/"+plain.ID+"/audio", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}
