package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTrusted(t *testing.T) {
	origins := []string{"https://app.example.com", "http://localhost:3000/"}

	tests := []struct {
		raw  string
		want bool
	}{
		{"/dashboard", true},
		{"/invitation/abc?accepted=true", true},
		{"https://app.example.com/settings", true},
		{"http://localhost:3000", true},
		{"", false},
		{"//evil.example", false},
		{"/\\evil.example", false},
		{"https://evil.example/dashboard", false},
		{"https://app.example.com.evil.example", false},
		{"http://app.example.com/", false},
		{"javascript:alert(1)", false},
		{"dashboard", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrusted(origins, tt.raw))
		})
	}
}

func TestOptions(t *testing.T) {
	opts := Options{BaseURL: "https://app.example.com/", TrustedOrigins: []string{"", "https://admin.example.com"}}

	assert.True(t, opts.SecureCookies())
	assert.Equal(t, "https://app.example.com/api/auth/callback/github", opts.CallbackURL("github"))

	d := opts.withDefaults()
	assert.Equal(t, []string{"https://admin.example.com", "https://app.example.com"}, d.TrustedOrigins)
	assert.Equal(t, []string{"", "https://admin.example.com"}, opts.TrustedOrigins, "defaults do not touch the caller slice")

	assert.False(t, Options{BaseURL: "http://localhost:3000"}.SecureCookies())
	assert.Equal(t, "http://localhost:3000/auth/callback/google",
		Options{BaseURL: "http://localhost:3000", BasePath: "/auth"}.CallbackURL("google"))
}
