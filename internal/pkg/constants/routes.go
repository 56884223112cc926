package constants

// Static route constants
const (
	PublicRoute  = "/"
	CoursesRoute = "/courses"
	// WebhookRoute receives processor notifications. It is signature
	// verified and must stay outside CSRF protection.
	WebhookRoute = "/billing/webhook"
	APIPrefix    = "/api/"
	DocsRoute    = "/docs/api/"
)
