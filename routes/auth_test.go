package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

func registrationValues(username, password string) url.Values {
	return url.Values{
		"username":   {username},
		"email":      {gofakeit.Email()},
		"first_name": {gofakeit.FirstName()},
		"last_name":  {gofakeit.LastName()},
		"password1":  {password},
		"password2":  {password},
	}
}

func sessionFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == config.Get().CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.get("/auth/registration", nil).Code)

	w := app.postForm("/auth/registration", registrationValues("newbie", "long-enough-pw"), nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	var u models.User
	require.NoError(t, app.db.Where("username = ?", "newbie").Take(&u).Error)
	assert.NotEqual(t, "long-enough-pw", u.PasswordHash)
	assert.True(t, utils.CheckPassword(u.PasswordHash, "long-enough-pw"))
	assert.Equal(t, "192.0.2.10", u.RegisterIP)

	login := app.postForm("/auth/login/", url.Values{"username": {"newbie"}, "password": {"long-enough-pw"}}, nil)
	assert.Equal(t, http.StatusFound, login.Code)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	app := newTestApp(t)
	app.user("taken")

	mismatch := registrationValues("fresh", "long-enough-pw")
	mismatch.Set("password2", "something-else")

	cases := map[string]url.Values{
		"duplicate username": registrationValues("taken", "long-enough-pw"),
		"password mismatch":  mismatch,
		"short password":     registrationValues("fresh", "short"),
		"bad username":       registrationValues("has space", "long-enough-pw"),
		"missing username":   registrationValues("", "long-enough-pw"),
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			w := app.postForm("/auth/registration", form, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `class="error"`)
			assert.NotContains(t, w.Body.String(), "long-enough-pw", "passwords are not echoed back")
		})
	}

	var n int64
	require.NoError(t, app.db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRegisterWithCaptcha(t *testing.T) {
	app := newTestApp(t, func(c *config.AppConfig) { c.RegisterCaptchaEnabled = true })

	w := app.get("/auth/captcha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code int `json:"code"`
		Data struct {
			ID    string `json:"id"`
			Image string `json:"image"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	assert.True(t, strings.HasPrefix(resp.Data.Image, "data:image/png;base64,"))

	wrong := registrationValues("robot", "long-enough-pw")
	wrong.Set("captcha_id", resp.Data.ID)
	wrong.Set("captcha_answer", "not-it")
	assert.Equal(t, http.StatusBadRequest, app.postForm("/auth/registration", wrong, nil).Code)

	// the failed attempt consumed the captcha; fetch another
	require.NoError(t, json.Unmarshal(app.get("/auth/captcha", nil).Body.Bytes(), &resp))
	good := registrationValues("human", "long-enough-pw")
	good.Set("captcha_id", resp.Data.ID)
	good.Set("captcha_answer", utils.CaptchaAnswer(resp.Data.ID))
	w = app.postForm("/auth/registration", good, nil)
	assert.Equal(t, http.StatusFound, w.Code, w.Body.String())
}

func TestRegisterDailyLimit(t *testing.T) {
	app := newTestApp(t, func(c *config.AppConfig) { c.RegisterMaxPerIPPerDay = 1 })

	assert.Equal(t, http.StatusFound, app.postForm("/auth/registration", registrationValues("first", "long-enough-pw"), nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.postForm("/auth/registration", registrationValues("second", "long-enough-pw"), nil).Code)
}

func TestRegisterBanAfterRepeatedFailures(t *testing.T) {
	app := newTestApp(t, func(c *config.AppConfig) { c.RegisterFailedMaxPerIPPerHour = 2 })
	bad := registrationValues("x y", "long-enough-pw")

	assert.Equal(t, http.StatusBadRequest, app.postForm("/auth/registration", bad, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.postForm("/auth/registration", bad, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.postForm("/auth/registration", registrationValues("valid", "long-enough-pw"), nil).Code)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	u := app.user("writer")

	assert.Equal(t, http.StatusOK, app.get("/auth/login/", nil).Code)

	w := app.postForm("/auth/login/", url.Values{"username": {"writer"}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookie := sessionFrom(t, w)
	assert.True(t, cookie.HttpOnly)
	claims, err := utils.ParseToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	req := httptest.NewRequest(http.MethodGet, "/posts/create/", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusOK, app.serve(req, nil).Code)
}

func TestLoginFollowsLocalNextOnly(t *testing.T) {
	app := newTestApp(t)
	app.user("writer")

	cases := map[string]string{
		"/posts/create/":        "/posts/create/",
		"//evil.example/phish":  "/",
		"https://evil.example/": "/",
		"/\\evil.example":       "/",
	}
	for next, want := range cases {
		w := app.postForm("/auth/login/", url.Values{"username": {"writer"}, "password": {testPassword}, "next": {next}}, nil)
		require.Equal(t, http.StatusFound, w.Code, next)
		assert.Equal(t, want, w.Header().Get("Location"), next)
	}

	w := app.postForm("/auth/login/?next=/profile/writer/", url.Values{"username": {"writer"}, "password": {testPassword}}, nil)
	assert.Equal(t, "/profile/writer/", w.Header().Get("Location"))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.user("writer")

	for _, form := range []url.Values{
		{"username": {"writer"}, "password": {"wrong-password"}},
		{"username": {"ghost"}, "password": {testPassword}},
		{"username": {"writer"}},
	} {
		w := app.postForm("/auth/login/", form, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, w.Result().Cookies())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	u := app.user("writer")
	cookie := app.sessionCookie(&u)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout/", nil)
	req.AddCookie(cookie)
	w := app.serve(req, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/posts/create/", nil)
	req.AddCookie(cookie)
	w = app.serve(req, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/"))
}

func TestPasswordChange(t *testing.T) {
	app := newTestApp(t)
	u := app.user("writer")

	assert.Equal(t, http.StatusFound, app.get("/auth/password_change/", nil).Code)
	assert.Equal(t, http.StatusOK, app.get("/auth/password_change/", &u).Code)

	w := app.postForm("/auth/password_change/", url.Values{
		"old_password":  {"not-my-password"},
		"new_password1": {"brand-new-pass"},
		"new_password2": {"brand-new-pass"},
	}, &u)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.postForm("/auth/password_change/", url.Values{
		"old_password":  {testPassword},
		"new_password1": {"brand-new-pass"},
		"new_password2": {"brand-new-pass"},
	}, &u)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/password_change/done/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, app.get("/auth/password_change/done/", &u).Code)

	var got models.User
	require.NoError(t, app.reload(&got, u.ID))
	assert.True(t, utils.CheckPassword(got.PasswordHash, "brand-new-pass"))
	assert.False(t, utils.CheckPassword(got.PasswordHash, testPassword))
}

func TestSessionOfDeletedUser(t *testing.T) {
	app := newTestApp(t)
	u := app.user("ghost")
	require.NoError(t, app.db.Delete(&models.User{}, u.ID).Error)

	w := app.postForm("/posts/create/", url.Values{"title": {"t"}, "text": {"x"}}, &u)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/"))
}
