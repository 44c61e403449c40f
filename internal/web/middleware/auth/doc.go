// Package auth guards the server-rendered pages.
//
// The session itself is loaded once per request by the auth engine
// middleware; the handlers here only decide where a visitor goes:
//   - RequireLogin sends visitors without a session to /login?redirectTo=<page>
//   - RedirectSignedIn sends signed-in users from /login and /signup to their target
//
// Usage:
//
//	app.Use(engine.LoadSession())
//	app.Get("/dashboard", authmiddleware.RequireLogin, dashboard.Get)
package auth
