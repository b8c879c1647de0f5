package constants

// Session and context keys
const (
	SessionCookieName = "qa_session"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "current_user"
	ContextKeyProject = "project"
)

// Validation limits
const (
	MinPasswordLength = 6
	MinProgress       = 0
	MaxProgress       = 100
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DefaultStatus is assigned to new projects when no status is provided.
const DefaultStatus = "Pendiente"
