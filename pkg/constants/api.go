package constants

// Context keys
const (
	ContextKeyActor = "actor"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
	HeaderActorID       = "X-Actor-Id"
	HeaderActorName     = "X-Actor-Name"
)

// Response envelope keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)

// Sort directions
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)
