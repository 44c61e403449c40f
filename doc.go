// Package main is the entry point of TenantGate, a multi-tenant
// authentication service. It serves email/password and social sign-in,
// database backed sessions, organizations with role based access and
// email invitations through an auth API mounted at /api/auth and a server
// rendered web UI built on fiber. Persistence goes through gorm on
// postgres, mysql or sqlite.
package main
