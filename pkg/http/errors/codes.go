package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInvalidConfig    = "invalid_config"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Match errors
	ErrCodeMatchNotFound    = "match_not_found"
	ErrCodeNotOwner         = "not_owner"
	ErrCodeInvalidMatchID   = "invalid_match_id"
	ErrCodeInvalidOption    = "invalid_option"
	ErrCodeUnknownPowerUp   = "unknown_power_up"
	ErrCodeCategoryEmpty    = "category_empty"
	ErrCodeResultsNotFound  = "results_not_found"
	ErrCodeMatchStartFailed = "match_start_failed"

	// Matchmaking errors
	ErrCodeSearchNotFound     = "search_not_found"
	ErrCodeInvalidSearchToken = "invalid_search_token"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
