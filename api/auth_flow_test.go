package api_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"bitwise74/member-portal/api"
	"bitwise74/member-portal/model"
	"bitwise74/member-portal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, a *api.API, username, email, password string) *http.Cookie {
	t.Helper()

	w := testutil.Do(a, "POST", "/auth/register", url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}, nil)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login", w.Header().Get("Location"))

	return testutil.SessionCookie(w)
}

func TestRegisterThenLogin(t *testing.T) {
	a, _ := testutil.SetupAPI(t)

	regCookie := register(t, a, "alice", "a@example.com", "Secret123!")
	require.NotNil(t, regCookie)

	// The one-shot registration notice shows up on the login page once
	w := testutil.Do(a, "GET", "/auth/login", nil, []*http.Cookie{regCookie})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You are now registered and can log in")

	w = testutil.Do(a, "GET", "/auth/login", nil, []*http.Cookie{regCookie})
	assert.NotContains(t, w.Body.String(), "You are now registered and can log in")

	w = testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"Secret123!"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/user/dashboard", w.Header().Get("Location"))

	sess := testutil.SessionCookie(w)
	require.NotNil(t, sess)

	w = testutil.Do(a, "GET", "/user/dashboard", nil, []*http.Cookie{sess})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestLoginNormalizesEmailCase(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "carol", "carol@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"CAROL@Example.COM"},
		"password": {"Secret123!"},
	}, nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/user/dashboard", w.Header().Get("Location"))
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"WrongPass"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))

	// No authenticated session came out of the failed attempt
	var count int64
	require.NoError(t, a.DB.Model(&model.Session{}).Where("user_id <> ''").Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Same message whether the email or the password was wrong
	flashCookie := testutil.SessionCookie(w)
	require.NotNil(t, flashCookie)

	w = testutil.Do(a, "GET", "/auth/login", nil, []*http.Cookie{flashCookie})
	body := w.Body.String()
	assert.Contains(t, body, "Invalid email or password")
	assert.NotContains(t, body, "wrong password")

	w = testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"nobody@example.com"},
		"password": {"Secret123!"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"Secret123!"},
	}, nil)
	sess := testutil.SessionCookie(w)
	require.NotNil(t, sess)

	w = testutil.Do(a, "GET", "/auth/logout", nil, []*http.Cookie{sess})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))

	var count int64
	require.NoError(t, a.DB.Model(&model.Session{}).Where("id = ?", sess.Value).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// The old cookie no longer authenticates
	w = testutil.Do(a, "GET", "/user/dashboard", nil, []*http.Cookie{sess})
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/register", url.Values{
		"username":         {"bob"},
		"email":            {"A@Example.com"}, // case differs, still the same address
		"password":         {"Secret123!"},
		"confirm_password": {"Secret123!"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/register", url.Values{
		"username":         {"alice"},
		"email":            {"other@example.com"},
		"password":         {"Secret123!"},
		"confirm_password": {"Secret123!"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already taken")
}

func TestRegisterValidation(t *testing.T) {
	a, _ := testutil.SetupAPI(t)

	w := testutil.Do(a, "POST", "/auth/register", url.Values{
		"username":         {"alice"},
		"email":            {"a@example.com"},
		"password":         {"Secret123!"},
		"confirm_password": {"Different1!"},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "passwords do not match")
	// Non-sensitive input is preserved in the re-rendered form
	assert.Contains(t, body, `value="alice"`)
	assert.Contains(t, body, `value="a@example.com"`)
	assert.NotContains(t, body, "Secret123!")
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	a, mailer := testutil.SetupAPI(t)

	w := testutil.Do(a, "POST", "/auth/forgot-password", url.Values{
		"email": {"ghost@example.com"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/forgot-password", w.Header().Get("Location"))

	flashCookie := testutil.SessionCookie(w)
	require.NotNil(t, flashCookie)

	w = testutil.Do(a, "GET", "/auth/forgot-password", nil, []*http.Cookie{flashCookie})
	assert.Contains(t, w.Body.String(), "No user found with that email address.")

	assert.Empty(t, mailer.Sent)

	var count int64
	require.NoError(t, a.DB.Model(&model.ResetToken{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestForgotPasswordSendsLink(t *testing.T) {
	a, mailer := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	w := testutil.Do(a, "POST", "/auth/forgot-password", url.Values{
		"email": {"a@example.com"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)

	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "a@example.com", mailer.Sent[0].To)
	assert.True(t, strings.HasPrefix(mailer.Sent[0].Link, "http://localhost:3000/auth/reset-password/"))

	var count int64
	require.NoError(t, a.DB.Model(&model.ResetToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResetPasswordFlow(t *testing.T) {
	a, mailer := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	testutil.Do(a, "POST", "/auth/forgot-password", url.Values{"email": {"a@example.com"}}, nil)
	require.Len(t, mailer.Sent, 1)

	token := strings.TrimPrefix(mailer.Sent[0].Link, "http://localhost:3000/auth/reset-password/")

	w := testutil.Do(a, "GET", "/auth/reset-password/"+token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/auth/reset-password/"+token)

	w = testutil.Do(a, "POST", "/auth/reset-password/"+token, url.Values{
		"password":         {"NewSecret456!"},
		"confirm_password": {"NewSecret456!"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))

	// Old credentials stop working, new ones log in
	w = testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"Secret123!"},
	}, nil)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))

	w = testutil.Do(a, "POST", "/auth/login", url.Values{
		"email":    {"a@example.com"},
		"password": {"NewSecret456!"},
	}, nil)
	assert.Equal(t, "/user/dashboard", w.Header().Get("Location"))

	// The token is single use
	w = testutil.Do(a, "POST", "/auth/reset-password/"+token, url.Values{
		"password":         {"ThirdSecret789!"},
		"confirm_password": {"ThirdSecret789!"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/forgot-password", w.Header().Get("Location"))
}

func TestResetPasswordExpiredToken(t *testing.T) {
	a, _ := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	var user model.User
	require.NoError(t, a.DB.Where("email = ?", "a@example.com").First(&user).Error)

	require.NoError(t, a.DB.Create(&model.ResetToken{
		UserID:    user.ID,
		Token:     "expiredtoken",
		ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	w := testutil.Do(a, "GET", "/auth/reset-password/expiredtoken", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/forgot-password", w.Header().Get("Location"))

	w = testutil.Do(a, "POST", "/auth/reset-password/expiredtoken", url.Values{
		"password":         {"NewSecret456!"},
		"confirm_password": {"NewSecret456!"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/forgot-password", w.Header().Get("Location"))

	var fresh model.User
	require.NoError(t, a.DB.Where("id = ?", user.ID).First(&fresh).Error)
	assert.Equal(t, user.PasswordHash, fresh.PasswordHash)
}

func TestTokenSupersession(t *testing.T) {
	a, mailer := testutil.SetupAPI(t)
	register(t, a, "alice", "a@example.com", "Secret123!")

	testutil.Do(a, "POST", "/auth/forgot-password", url.Values{"email": {"a@example.com"}}, nil)
	testutil.Do(a, "POST", "/auth/forgot-password", url.Values{"email": {"a@example.com"}}, nil)
	require.Len(t, mailer.Sent, 2)

	first := strings.TrimPrefix(mailer.Sent[0].Link, "http://localhost:3000/auth/reset-password/")
	second := strings.TrimPrefix(mailer.Sent[1].Link, "http://localhost:3000/auth/reset-password/")

	w := testutil.Do(a, "GET", "/auth/reset-password/"+first, nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = testutil.Do(a, "GET", "/auth/reset-password/"+second, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, a.DB.Model(&model.ResetToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
