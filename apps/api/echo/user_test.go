package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/user"
)

func TestUserApi_register(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Taken User", "taken@test.com", "Str0ngPwd!!", user.StudentRoles)

	tests := []httpTest{
		{
			name:     "empty body fails validation",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password mismatch fails validation",
			body:     marchallObj(t, user.NewUser{Name: "Jess Murphy", Email: "jess@test.com", Password: "Str0ngPwd!!", PasswordConfirm: "nope"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate email is rejected",
			body:     marchallObj(t, user.NewUser{Name: "Imposter", Email: "taken@test.com", Password: "Str0ngPwd!!", PasswordConfirm: "Str0ngPwd!!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "ok",
			body:     marchallObj(t, user.NewUser{Name: "Jess Murphy", Email: "jess@test.com", Password: "Str0ngPwd!!", PasswordConfirm: "Str0ngPwd!!"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			env.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				decodeBody(t, rec, &usr)
				assert.NotEmpty(t, usr.ID)
				assert.Equal(t, "jess@test.com", usr.Email)
				assert.Equal(t, user.StudentRoles, usr.Roles)
				assert.False(t, usr.Onboarded)
				assert.NotContains(t, rec.Body.String(), "password")
			}
		})
	}
}

func TestUserApi_login(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	deactivated := env.createUser(t, "Gone User", "gone@test.com", "Str0ngPwd!!", user.StudentRoles)
	inactive := false
	if _, err := env.users.UpdateUser(context.Background(), deactivated, &inactive); err != nil {
		t.Fatalf("deactivating user failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "ok",
			body:     marchallObj(t, LoginRequest{Email: "jess@test.com", Password: "Str0ngPwd!!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "email is case-insensitive",
			body:     marchallObj(t, LoginRequest{Email: "JESS@Test.Com", Password: "Str0ngPwd!!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Email: "jess@test.com", Password: "letmein"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     marchallObj(t, LoginRequest{Email: "nobody@test.com", Password: "Str0ngPwd!!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Email: "gone@test.com", Password: "Str0ngPwd!!"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var resp LoginResponse
			decodeBody(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func TestUserApi_me(t *testing.T) {
	env := newTestEnv(t)
	usr := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)

	t.Run("requires a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/me")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me", getToken(t, usr))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)
	})
}

func TestUserApi_query_isAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	admin := env.createUser(t, "Root Admin", "admin@test.com", "Str0ngPwd!!", user.AllRoles)

	t.Run("students are forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("admins see everyone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, admin))
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decodeBody(t, rec, &users)
		assert.Len(t, users, 2)
	})

	t.Run("search filter narrows results", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users?search=murphy", getToken(t, admin))
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decodeBody(t, rec, &users)
		if assert.Len(t, users, 1) {
			assert.Equal(t, student.ID, users[0].ID)
		}
	})
}

func TestUserApi_selectSubjects(t *testing.T) {
	env := newTestEnv(t)
	usr := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	maths := env.exams.SeedSubject(exam.Subject{Name: "Mathematics", Level: exam.LevelHigher})
	english := env.exams.SeedSubject(exam.Subject{Name: "English", Level: exam.LevelHigher})
	token := getToken(t, usr)

	t.Run("empty selection fails validation", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/me/subjects", token, marchallObj(t, user.SelectSubjects{}))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		data := user.SelectSubjects{SubjectIDs: []string{maths.ID, english.ID}}
		req, rec := newAuthRequest(http.MethodPut, "/v1/me/subjects", token, marchallObj(t, data))
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated user.User
		decodeBody(t, rec, &updated)
		assert.True(t, updated.Onboarded)
		assert.ElementsMatch(t, data.SubjectIDs, updated.SubjectIDs)
	})

	t.Run("replacement drops previous selection", func(t *testing.T) {
		data := user.SelectSubjects{SubjectIDs: []string{maths.ID}}
		req, rec := newAuthRequest(http.MethodPut, "/v1/me/subjects", token, marchallObj(t, data))
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated user.User
		decodeBody(t, rec, &updated)
		assert.Equal(t, []string{maths.ID}, updated.SubjectIDs)
	})
}

func TestUserApi_changePassword(t *testing.T) {
	env := newTestEnv(t)
	usr := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, usr)

	t.Run("wrong current password", func(t *testing.T) {
		data := user.ChangeUserPassword{CurrentPassword: "nope", Password: "N3wStr0ngPwd!", PasswordConfirm: "N3wStr0ngPwd!"}
		req, rec := newAuthRequest(http.MethodPut, "/v1/me/password", token, marchallObj(t, data))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		data := user.ChangeUserPassword{CurrentPassword: "Str0ngPwd!!", Password: "N3wStr0ngPwd!", PasswordConfirm: "N3wStr0ngPwd!"}
		req, rec := newAuthRequest(http.MethodPut, "/v1/me/password", token, marchallObj(t, data))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "Password has been changed."})}, rec)

		// old password no longer works
		req, rec = newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Email: "jess@test.com", Password: "Str0ngPwd!!"}))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		req, rec = newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Email: "jess@test.com", Password: "N3wStr0ngPwd!"}))
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}
