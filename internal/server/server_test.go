package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-yatube/internal/auth"
	"backend-yatube/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{JWTSecret: "secret", ServerPort: ":0", PageCacheTTL: time.Minute, MediaRoot: t.TempDir()}
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func tokenFor(t *testing.T, mock pgxmock.PgxPoolIface, actor auth.Actor) string {
	t.Helper()
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), actor.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	tokens, err := auth.NewService("secret", mock).GenerateTokens(t.Context(), actor)
	require.NoError(t, err)
	return tokens.AccessToken
}

func TestHealthRoute(t *testing.T) {
	s := NewServer(testConfig(t), nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestMetricsRoute(t *testing.T) {
	s := NewServer(testConfig(t), nil, nil)

	_, _ = s.App.Test(httptest.NewRequest("GET", "/health", nil))
	resp, err := s.App.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "yatube_http_requests_total")
}

func TestIndexIsCachedUntilCleared(t *testing.T) {
	mock := newMock(t)
	rs := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: rs.Addr()})
	defer client.Close()

	s := NewServer(testConfig(t), mock, client)
	defer s.Close()

	rows := func(text string) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "text", "pub_date", "author_id", "username", "group_id", "slug", "title", "image"}).
			AddRow(int64(1), text, time.Now(), int64(1), "leo", int64(0), "", "", "")
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`LIMIT 10 OFFSET 0`).WillReturnRows(rows("first"))

	resp, err := s.App.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	first, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(first), "first")

	resp, err = s.App.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	second, _ := io.ReadAll(resp.Body)
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())

	staff := tokenFor(t, mock, auth.Actor{ID: 9, Username: "admin", IsStaff: true})
	req := httptest.NewRequest("POST", "/admin/cache/clear", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	resp, err = s.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`LIMIT 10 OFFSET 0`).WillReturnRows(rows("edited"))
	resp, err = s.App.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	third, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(third), "edited")
}

func TestNotFoundContext(t *testing.T) {
	mock := newMock(t)
	s := NewServer(testConfig(t), mock, nil)

	mock.ExpectQuery(`SELECT id, username FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}))

	resp, err := s.App.Test(httptest.NewRequest("GET", "/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "/ghost", body["path"])
}

func TestServerErrorContext(t *testing.T) {
	mock := newMock(t)
	s := NewServer(testConfig(t), mock, nil)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM groups`).WillReturnError(errors.New("connection reset"))

	resp, err := s.App.Test(httptest.NewRequest("GET", "/groups", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"server_error"}`, string(body))
}

func TestAuthOnlyRoutesRedirect(t *testing.T) {
	s := NewServer(testConfig(t), newMock(t), nil)

	for _, path := range []string{"/new", "/follow", "/leo/follow"} {
		resp, err := s.App.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/auth/login?next="), path)
	}
}

func TestCookieActorReachesHandlers(t *testing.T) {
	mock := newMock(t)
	s := NewServer(testConfig(t), mock, nil)
	token := tokenFor(t, mock, auth.Actor{ID: 1, Username: "leo"})

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts p JOIN users u ON u\.id = p\.author_id WHERE p\.author_id IN`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT 10 OFFSET 0`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "text", "pub_date", "author_id", "username", "group_id", "slug", "title", "image"}))

	req := httptest.NewRequest("GET", "/follow", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
