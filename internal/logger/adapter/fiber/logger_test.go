package fiber_test

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/tenantgate/tenantgate/internal/logger/adapter/fiber"
)

// expectedLoggerJSONFormat implements loggers default json format.
type expectedLoggerJSONFormat struct {
	IP     net.IP `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Error  string `json:"error"`
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		config     adapter.Config
		want       *expectedLoggerJSONFormat
	}{
		{
			name:       "get / logs status and uri",
			targetPath: "/",
			want:       &expectedLoggerJSONFormat{IP: net.ParseIP("0.0.0.0"), Status: 200, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "multiple slashes kept in uri",
			targetPath: "//test",
			want:       &expectedLoggerJSONFormat{IP: net.ParseIP("0.0.0.0"), Status: 404, URI: "//test", Method: fiber.MethodGet, Host: "example.com", Error: "Cannot GET //test"},
		},
		{
			name:       "query string kept in uri",
			targetPath: "/?redirectTo=%2Fdashboard",
			want:       &expectedLoggerJSONFormat{IP: net.ParseIP("0.0.0.0"), Status: 200, URI: "/?redirectTo=%2Fdashboard", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:       "signed in user is logged",
			targetPath: "/me",
			want:       &expectedLoggerJSONFormat{IP: net.ParseIP("0.0.0.0"), Status: 200, URI: "/me", Method: fiber.MethodGet, Host: "example.com", User: "user-1"},
		},
		{
			name:       "handler error is logged",
			targetPath: "/fail",
			want:       &expectedLoggerJSONFormat{IP: net.ParseIP("0.0.0.0"), Status: 418, URI: "/fail", Method: fiber.MethodGet, Host: "example.com", Error: "teapot"},
		},
		{
			name:       "check alive is skipped",
			targetPath: "/checkalive",
			config:     adapter.Config{CheckAliveURI: "/checkalive"},
		},
		{
			name:       "next skips logging",
			targetPath: "/",
			config:     adapter.Config{Next: func(*fiber.Ctx) bool { return true }},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			cfg := tt.config
			cfg.Output = &out
			cfg.Config.DisableCheckAlive = true

			app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
			app.Use(adapter.New(cfg))
			app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString("hello test") })
			app.Get("/checkalive", func(ctx *fiber.Ctx) error { return ctx.SendString("OK") })
			app.Get("/me", func(ctx *fiber.Ctx) error {
				ctx.Locals(adapter.LocalsUserID, "user-1")

				return ctx.SendString("me")
			})
			app.Get("/fail", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "teapot") })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.targetPath, nil), -1)
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, out.String())

				return
			}

			assert.NotEmpty(t, resp.Header.Get("X-Performance"))

			var got expectedLoggerJSONFormat
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))

			assert.Equal(t, tt.want.Host, got.Host)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.IP, got.IP)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.User, got.User)
			assert.Equal(t, tt.want.Error, got.Error)
		})
	}
}
