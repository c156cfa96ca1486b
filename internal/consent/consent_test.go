package consent

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParse(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	v, err := Encode(New(true, false, now))
	require.NoError(t, err)

	c, err := Parse(v)
	require.NoError(t, err)
	assert.True(t, c.Necessary)
	assert.True(t, c.Analytics)
	assert.False(t, c.Marketing)
	assert.True(t, c.UpdatedAt.Equal(now))
}

func TestParse_RejectsBadValues(t *testing.T) {
	_, err := Parse("%%%")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse(base64.RawURLEncoding.EncodeToString([]byte("{oops")))
	assert.ErrorIs(t, err, ErrInvalid)

	old, _ := json.Marshal(Consent{Version: 0, Analytics: true})
	_, err = Parse(base64.RawURLEncoding.EncodeToString(old))
	assert.ErrorIs(t, err, ErrInvalid)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	(&Handler{}).Register(r)
	return r
}

func TestHandler_Lifecycle(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/consent", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"set":false}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/consent", strings.NewReader(`{"analytics":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, CookieName, ck.Name)
	assert.False(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 180*24*3600, ck.MaxAge)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/consent", nil)
	req.AddCookie(ck)
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"analytics":true`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/consent", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestFromRequest_MalformedIsAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	_, ok := FromRequest(req)
	assert.False(t, ok)
}
