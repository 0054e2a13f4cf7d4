// ABOUTME: Tests for the REST collaborators: auth header, scoped errors,
// ABOUTME: 401 invalidation, full-name parsing, query encoding.

package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agentwire/internal/auth"
)

func TestClient_BearerHeaderAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"model":"gpt-4o"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, auth.NewStaticTokenSource("tok-1"), nil, nil)
	_, err := c.GetSettings(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestClient_UnauthorizedInvalidatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := auth.NewStaticTokenSource("original")
	tokens.SetToken("stale")

	c := NewClient(srv.URL, tokens, nil, nil)
	_, err := c.GetSettings(t.Context())
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Invalidate rolled the static source back to its provisioned token.
	tok, _ := tokens.Token(t.Context())
	assert.Equal(t, "original", tok)
}

func TestClient_ServerErrorIsScopedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	_, err := c.ListRepositories(t.Context())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Body, "upstream gone")
}

func TestClient_GetSettingsAndInitPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		w.Write([]byte(`{"model":"gpt-4o","agent":"CodeActAgent","language":"en","confirmation_mode":true,"api_key_set":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	s, err := c.GetSettings(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", s.Model)
	assert.True(t, s.APIKeySet)

	payload := s.InitPayload()
	assert.Equal(t, "CodeActAgent", payload["agent"])
	assert.Equal(t, true, payload["confirmation_mode"])
	_, leaks := payload["api_key_set"]
	assert.False(t, leaks, "credential presence flags stay out of the handshake")
}

func TestParseFullName(t *testing.T) {
	tests := []struct {
		in      string
		want    Repo
		wantErr bool
	}{
		{"octo/spoon", Repo{Owner: "octo", Name: "spoon"}, false},
		{"octo/spoon/docs/sub", Repo{Owner: "octo", Name: "spoon", Subpath: "docs/sub"}, false},
		{"justowner", Repo{}, true},
		{"/repo", Repo{}, true},
		{"owner/", Repo{}, true},
		{"", Repo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFullName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Owner+"/"+tt.want.Name, got.FullName())
		})
	}
}

func TestClient_ListMicroagentsPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"name":"repo-guide","path":"microagents/repo-guide.md","triggers":["build"]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	agents, err := c.ListMicroagents(t.Context(), "octo/spoon")
	require.NoError(t, err)
	assert.Equal(t, "/api/user/repository/octo/spoon/microagents", gotPath)
	require.Len(t, agents, 1)
	assert.Equal(t, "repo-guide", agents[0].Name)
}

func TestClient_SearchConversationsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"results":[{"conversation_id":"c1","title":"Fix tests","status":"STOPPED","pr_number":[12]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	got, err := c.SearchConversations(t.Context(), SearchParams{
		Repository: "octo/spoon",
		Trigger:    "gui",
		Limit:      5,
	})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "selected_repository=octo%2Fspoon")
	assert.Contains(t, gotQuery, "conversation_trigger=gui")
	assert.Contains(t, gotQuery, "limit=5")
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, []int{12}, got[0].PRNumbers)
}

func TestClient_ListBranchesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octo/spoon", r.URL.Query().Get("repository"))
		w.Write([]byte(`[{"name":"main","commit_sha":"abc123"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	branches, err := c.ListBranches(t.Context(), "octo/spoon")
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "main", branches[0].Name)
}
