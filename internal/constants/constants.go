package constants

// Session and context keys
const (
	SessionCookieName  = "taskhub_session"
	ContextKeyUserID   = "user_id"
	ContextKeyUser     = "current_user"
	ContextKeyEntityID = "entity_id"
)

// Validation limits
const (
	MinPasswordLength   = 8
	MaxUsernameLen      = 150
	MaxCommentLen       = 5000
	MaxProjectNameLen   = 200
	MaxTaskTitleLen     = 200
	MaxTagsLen          = 100
	MaxAIGeneratedTasks = 20
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DateLayout is the wire format of task due dates in forms.
const DateLayout = "2006-01-02"
