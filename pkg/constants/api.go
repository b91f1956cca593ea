package constants

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
)

// Standard response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)

// Context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// Environment variable names
const (
	EnvPort        = "PORT"
	EnvDBHost      = "DB_HOST"
	EnvDBPort      = "DB_PORT"
	EnvDBUser      = "DB_USER"
	EnvDBPassword  = "DB_PASSWORD"
	EnvDBName      = "DB_NAME"
	EnvJWTSecret   = "JWT_SECRET"
	EnvGinMode     = "GIN_MODE"
	EnvSkipLayouts = "SKIP_DEFAULT_LAYOUTS"
)
