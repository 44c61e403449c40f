package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// DashboardPath is where signed-in users land.
	DashboardPath = "/dashboard"

	// LoginPath is the sign-in page.
	LoginPath = "/login"

	// ErrNilACEFatalLogMsg is used if app, cfg or engine is nil.
	ErrNilACEFatalLogMsg = "app, cfg or engine is nil"
)
