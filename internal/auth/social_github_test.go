package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryEmail(t *testing.T) {
	tests := []struct {
		name         string
		emails       []*github.UserEmail
		public       string
		wantEmail    string
		wantVerified bool
	}{
		{
			name: "primary wins",
			emails: []*github.UserEmail{
				{Email: github.Ptr("other@example.com"), Verified: github.Ptr(true)},
				{Email: github.Ptr("main@example.com"), Primary: github.Ptr(true), Verified: github.Ptr(true)},
			},
			public:       "other@example.com",
			wantEmail:    "main@example.com",
			wantVerified: true,
		},
		{
			name: "public address listed",
			emails: []*github.UserEmail{
				{Email: github.Ptr("pub@example.com"), Verified: github.Ptr(true)},
			},
			public:       "pub@example.com",
			wantEmail:    "pub@example.com",
			wantVerified: true,
		},
		{
			name:      "public address only",
			public:    "pub@example.com",
			wantEmail: "pub@example.com",
		},
		{
			name: "nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, verified := primaryEmail(tt.emails, tt.public)
			assert.Equal(t, tt.wantEmail, email)
			assert.Equal(t, tt.wantVerified, verified)
		})
	}
}

func TestGitHubProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"login":"octocat","avatar_url":"https://avatars.example/42","email":null}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"email":"octo@example.com","primary":true,"verified":true}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	client.BaseURL = base

	g := NewGitHub("id", "secret", testBaseURL+"/api/auth/callback/github")
	assert.Equal(t, ProviderGitHub, g.ID())

	authURL, err := url.Parse(g.AuthCodeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", authURL.Host)
	assert.Equal(t, "xyz", authURL.Query().Get("state"))

	profile, err := g.profile(context.Background(), client)
	require.NoError(t, err)

	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "octocat", profile.Name)
	assert.Equal(t, "octo@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "https://avatars.example/42", profile.Image)
}
