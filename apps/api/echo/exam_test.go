package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/user"
)

func seedMaths(t *testing.T, env *testEnv) (exam.Subject, exam.Topic, []exam.Question) {
	t.Helper()

	maths := env.exams.SeedSubject(exam.Subject{Name: "Mathematics", Level: exam.LevelHigher})
	algebra := env.exams.SeedTopic(exam.Topic{SubjectID: maths.ID, Name: "Algebra"})

	questions := make([]exam.Question, 0, 5)
	for _, q := range []exam.Question{
		{Year: 2024, Paper: "1", Number: 1, Text: "Solve the quadratic equation"},
		{Year: 2024, Paper: "1", Number: 2, Text: "Factorise fully"},
		{Year: 2024, Paper: "2", Number: 1, Text: "Prove by induction"},
		{Year: 2023, Paper: "1", Number: 1, Text: "Solve the simultaneous equations"},
		{Year: 2022, Paper: "1", Number: 4, Text: "Simplify the expression"},
	} {
		q.SubjectID = maths.ID
		q.TopicID = algebra.ID
		questions = append(questions, env.exams.SeedQuestion(q))
	}
	return maths, algebra, questions
}

func TestExamApi_search_requiresSubscription(t *testing.T) {
	env := newTestEnv(t)
	maths, _, _ := seedMaths(t, env)

	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	tutor := env.createUser(t, "Tutor Tom", "tom@test.com", "Str0ngPwd!!", user.TutorRoles)
	path := "/v1/questions?subject=" + url.QueryEscape(maths.ID)

	t.Run("unsubscribed students are gated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusPaymentRequired,
			wantData: marchallObj(t, httpErr{Error: "an active subscription is required"}),
		}, rec)
	})

	t.Run("subscribers pass", func(t *testing.T) {
		env.subscribe(t, student.ID)
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, student))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("tutors bypass the gate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, tutor))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestExamApi_search(t *testing.T) {
	env := newTestEnv(t)
	maths, _, _ := seedMaths(t, env)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	env.subscribe(t, student.ID)
	token := getToken(t, student)

	t.Run("pages are walked via the cursor", func(t *testing.T) {
		var pages []exam.Page
		cursor := ""
		for {
			path := fmt.Sprintf("/v1/questions?subject=%s&limit=2", url.QueryEscape(maths.ID))
			if cursor != "" {
				path += "&cursor=" + url.QueryEscape(cursor)
			}
			req, rec := newAuthRequest(http.MethodGet, path, token)
			env.server.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var page exam.Page
			decodeBody(t, rec, &page)
			assert.LessOrEqual(t, len(page.Questions), 2)
			pages = append(pages, page)
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}

		merged := exam.MergePages(pages...)
		assert.Len(t, merged, 5)
		assert.Equal(t, 2024, merged[0].Year, "most recent year comes first")
	})

	t.Run("year filter", func(t *testing.T) {
		path := fmt.Sprintf("/v1/questions?subject=%s&year=2024", url.QueryEscape(maths.ID))
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page exam.Page
		decodeBody(t, rec, &page)
		assert.Len(t, page.Questions, 3)
	})

	t.Run("keyword filter", func(t *testing.T) {
		path := fmt.Sprintf("/v1/questions?subject=%s&search=solve", url.QueryEscape(maths.ID))
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page exam.Page
		decodeBody(t, rec, &page)
		assert.Len(t, page.Questions, 2)
	})

	t.Run("malformed cursor degrades to the first page", func(t *testing.T) {
		path := fmt.Sprintf("/v1/questions?subject=%s&limit=2&cursor=garbage", url.QueryEscape(maths.ID))
		req, rec := newAuthRequest(http.MethodGet, path, token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page exam.Page
		decodeBody(t, rec, &page)
		assert.Len(t, page.Questions, 2)
	})
}

func TestExamApi_subjectsAndTopics(t *testing.T) {
	env := newTestEnv(t)
	maths, algebra, _ := seedMaths(t, env)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("subjects are public to any authed user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subjects []exam.Subject
		decodeBody(t, rec, &subjects)
		if assert.Len(t, subjects, 1) {
			assert.Equal(t, maths.ID, subjects[0].ID)
		}
	})

	t.Run("topics of a subject", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects/"+maths.ID+"/topics", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var topics []exam.Topic
		decodeBody(t, rec, &topics)
		if assert.Len(t, topics, 1) {
			assert.Equal(t, algebra.ID, topics[0].ID)
		}
	})

	t.Run("unknown subject is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects/nope/topics", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func TestExamApi_completionAndStats(t *testing.T) {
	env := newTestEnv(t)
	maths, _, questions := seedMaths(t, env)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	env.subscribe(t, student.ID)
	token := getToken(t, student)

	mark := func(t *testing.T, qID string, wantCode int) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/questions/"+qID+"/completion", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	}

	mark(t, questions[0].ID, http.StatusNoContent)
	mark(t, questions[1].ID, http.StatusNoContent)
	mark(t, questions[1].ID, http.StatusNoContent) // idempotent
	mark(t, "nope", http.StatusNotFound)

	t.Run("stats reflect completions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/stats?subject="+url.QueryEscape(maths.ID), token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stats []exam.SubjectStats
		decodeBody(t, rec, &stats)
		if assert.Len(t, stats, 1) {
			assert.Equal(t, 2, stats[0].Completed)
			assert.Equal(t, 5, stats[0].Total)
			assert.InDelta(t, 40.0, stats[0].Percent, 0.001)
		}
	})

	t.Run("unmarking brings the count back down", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/questions/"+questions[0].ID+"/completion", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/stats?subject="+url.QueryEscape(maths.ID), token)
		env.server.ServeHTTP(rec, req)
		var stats []exam.SubjectStats
		decodeBody(t, rec, &stats)
		if assert.Len(t, stats, 1) {
			assert.Equal(t, 1, stats[0].Completed)
		}
	})
}
