package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/grind"
	"github.com/prepdesk/prepdesk/core/user"
)

func TestGrindApi_query(t *testing.T) {
	env := newTestEnv(t)
	maths := env.exams.SeedSubject(exam.Subject{Name: "Mathematics", Level: exam.LevelHigher})
	english := env.exams.SeedSubject(exam.Subject{Name: "English", Level: exam.LevelHigher})

	now := time.Now().UTC()
	upcoming := env.grinds.SeedGrind(grind.Grind{SubjectID: maths.ID, Title: "Paper 1 Revision", Tutor: "Tutor Tom", StartsAt: now.Add(48 * time.Hour), DurationMn: 90, Capacity: 30})
	env.grinds.SeedGrind(grind.Grind{SubjectID: english.ID, Title: "Poetry Crash Course", Tutor: "Tutor Tess", StartsAt: now.Add(72 * time.Hour), DurationMn: 60})
	env.grinds.SeedGrind(grind.Grind{SubjectID: maths.ID, Title: "Done And Dusted", Tutor: "Tutor Tom", StartsAt: now.Add(-time.Hour), DurationMn: 90})

	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("only upcoming grinds are listed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grinds", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var grinds []grind.Grind
		decodeBody(t, rec, &grinds)
		assert.Len(t, grinds, 2)
	})

	t.Run("subject filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grinds?subject="+maths.ID, token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var grinds []grind.Grind
		decodeBody(t, rec, &grinds)
		if assert.Len(t, grinds, 1) {
			assert.Equal(t, upcoming.ID, grinds[0].ID)
		}
	})

	t.Run("retrieve by id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grinds/"+upcoming.ID, token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var g grind.Grind
		decodeBody(t, rec, &g)
		assert.Equal(t, "Paper 1 Revision", g.Title)
	})

	t.Run("unknown grind is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/grinds/nope", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func TestGrindApi_registration(t *testing.T) {
	env := newTestEnv(t)
	maths := env.exams.SeedSubject(exam.Subject{Name: "Mathematics", Level: exam.LevelHigher})

	now := time.Now().UTC()
	open := env.grinds.SeedGrind(grind.Grind{SubjectID: maths.ID, Title: "Paper 1 Revision", StartsAt: now.Add(48 * time.Hour), Capacity: 2})
	full := env.grinds.SeedGrind(grind.Grind{SubjectID: maths.ID, Title: "Full House", StartsAt: now.Add(24 * time.Hour), Capacity: 1, Registered: 1})

	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("requires a subscription", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grinds/"+open.ID+"/registration", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	})

	env.subscribe(t, student.ID)

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grinds/"+open.ID+"/registration", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var g grind.Grind
		decodeBody(t, rec, &g)
		assert.Equal(t, 1, g.Registered)
	})

	t.Run("double registration is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grinds/"+open.ID+"/registration", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: grind.ErrAlreadyRegistered.Error()}),
		}, rec)
	})

	t.Run("full grind is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/grinds/"+full.ID+"/registration", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: grind.ErrFull.Error()}),
		}, rec)
	})

	t.Run("my registrations", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me/grinds", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var regs []grind.Registration
		decodeBody(t, rec, &regs)
		if assert.Len(t, regs, 1) {
			assert.Equal(t, open.ID, regs[0].GrindID)
		}
	})

	t.Run("unregister frees the seat", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/grinds/"+open.ID+"/registration", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/grinds/"+open.ID, token)
		env.server.ServeHTTP(rec, req)
		var g grind.Grind
		decodeBody(t, rec, &g)
		assert.Zero(t, g.Registered)
	})
}
