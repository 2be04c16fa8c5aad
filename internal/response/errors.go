package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrPremiumRequired ErrCode = "PREMIUM_REQUIRED"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// Exam-specific
	ErrInsufficientPool   ErrCode = "INSUFFICIENT_QUESTION_POOL"
	ErrCatalogUnavailable ErrCode = "CATALOG_UNAVAILABLE"
	ErrSessionSubmitted   ErrCode = "SESSION_ALREADY_SUBMITTED"
	ErrInvalidOption      ErrCode = "INVALID_OPTION"
	ErrIndexOutOfRange    ErrCode = "INDEX_OUT_OF_RANGE"

	// Rate Limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrPremiumRequired:
		return "This feature requires a premium subscription."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrInsufficientPool:
		return "Not enough questions match the requested criteria."
	case ErrCatalogUnavailable:
		return "The question catalog is currently unavailable."
	case ErrSessionSubmitted:
		return "This exam session has already been submitted."
	case ErrInvalidOption:
		return "The selected option is not valid for this question."
	case ErrIndexOutOfRange:
		return "The requested question index is out of range."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
