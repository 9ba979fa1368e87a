package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailforge/internal/service"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSession("")
	return NewGateway(srv.URL+"/api", session), session
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGateway_LoginStoresTokenAndSendsIt(t *testing.T) {
	var seenAuth string
	gw, session := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":   true,
				"token":     "tok-1",
				"expiresAt": "2030-01-01T00:00:00Z",
				"user":      map[string]interface{}{"id": uuid.NewString(), "email": "a@example.com", "role": "user"},
			})
		case "/api/auth/me":
			seenAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"user":    map[string]interface{}{"email": "a@example.com"},
			})
		default:
			http.NotFound(w, r)
		}
	})

	result, err := gw.Login(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "a@example.com", result.User.Email)
	assert.Equal(t, "tok-1", session.Token())

	me, err := gw.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
	assert.Equal(t, "Bearer tok-1", seenAuth)
}

func TestGateway_UnauthorizedClearsSession(t *testing.T) {
	gw, session := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "session expired, please log in again",
			"code":    "TOKEN_EXPIRED",
		})
	})
	session.Set("stale")

	_, err := gw.Me(context.Background())

	require.Error(t, err)
	assert.True(t, IsSessionExpired(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, session.Authenticated())
}

func TestGateway_ForbiddenKeepsSession(t *testing.T) {
	gw, session := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"message": "you do not have permission to perform this action",
			"code":    "FORBIDDEN",
		})
	})
	session.Set("tok")

	_, err := gw.UpdateTemplate(context.Background(), uuid.New(), service.TemplateUpdate{})

	assert.True(t, IsForbidden(err))
	assert.Equal(t, "tok", session.Token())
}

func TestGateway_NonJSONIsTransportError(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := gw.ListTemplates(context.Background(), service.ListParams{})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestGateway_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	gw := NewGateway(srv.URL+"/api", NewSession("tok"))

	_, err := gw.Me(context.Background())

	assert.ErrorIs(t, err, ErrTransport)
}

func TestGateway_ListTemplatesSendsQueryAndReadsFlatPage(t *testing.T) {
	public := true
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/templates", r.URL.Path)
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "newsletter", q.Get("category"))
		assert.Equal(t, "true", q.Get("isPublic"))
		assert.Empty(t, q.Get("isPremium"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"templates": []map[string]interface{}{
				{"id": uuid.NewString(), "name": "Weekly", "rating": 4.5},
			},
			"pagination": map[string]interface{}{"currentPage": 2, "totalPages": 2, "total": 13, "limit": 12},
		})
	})

	page, err := gw.ListTemplates(context.Background(), service.ListParams{Page: 2, Category: "newsletter", IsPublic: &public})

	require.NoError(t, err)
	require.Len(t, page.Templates, 1)
	assert.Equal(t, "Weekly", page.Templates[0].Name)
	assert.Equal(t, "4.5", page.Templates[0].Rating.String())
	assert.EqualValues(t, 13, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestGateway_NestedPayload(t *testing.T) {
	id := uuid.New()
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/templates/"+id.String()+"/favorite", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"templateId": id.String(), "favorited": true, "favoriteCount": 3},
		})
	})

	result, err := gw.ToggleFavorite(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, result.TemplateID)
	assert.True(t, result.Favorited)
	assert.Equal(t, 3, result.FavoriteCount)
}

func TestGateway_LogoutClearsToken(t *testing.T) {
	gw := NewGateway("http://localhost:0/api", NewSession("tok"))
	gw.Logout()
	assert.False(t, gw.Session().Authenticated())
}
