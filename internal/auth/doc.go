// Package auth is the authentication engine of the application.
//
// It implements sign-up and sign-in with email and password, social sign-in
// through OAuth providers, database backed sessions and multi-tenant
// organizations with members, roles and invitations.
//
// # Sessions
//
// Sessions are rows with an opaque token that travels in the "session" cookie
// or a bearer header. Before a session is stored the BeforeSessionCreate
// transform of Options.Hooks may rewrite it, which is how the application
// picks the active organization of a fresh session.
//
// # Organizations
//
// Every member has a role of owner, admin or member. What a role may do is
// described by an AccessControl table:
//
//	owner   organization:update,delete  member:create,update,delete  invitation:create,cancel
//	admin   organization:update         member:create,update,delete  invitation:create,cancel
//	member  nothing
//
// An organization always keeps one owner.
//
// # Hooks
//
// Hooks come in two flavors. A MustSucceed hook is part of the operation and
// its error fails the call, invitation emails are sent that way. A BestEffort
// hook is fired after the fact, errors and panics are logged and dropped.
//
// Example usage:
//
//	engine, err := auth.New(db, opts, memory.New(), auth.WithSocialProvider(github))
//	if err != nil {
//	    return err
//	}
//
//	app.Use(engine.LoadSession())
//	engine.Routes(app.Group(opts.BasePath))
//
//	app.Get("/settings", engine.RequirePermission(auth.ResourceOrganization, auth.ActionUpdate), handler)
package auth
