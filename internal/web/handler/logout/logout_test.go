package logout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/web/webtest"
)

func TestLogout(t *testing.T) {
	env := webtest.New(t)
	app := env.App(func(app *fiber.App) {
		var s Service
		require.NoError(t, s.Init(app, env.Config, env.Engine))
	})

	token := env.SessionToken(t, "alice@example.com")

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		req := webtest.WithSession(httptest.NewRequest(method, Path, nil), token)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))

		for _, c := range resp.Cookies() {
			if c.Name == auth.SessionCookie {
				assert.Empty(t, c.Value)
			}
		}
	}

	_, err := env.Engine.GetSession(context.Background(), token)
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}
