package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrAccountInactive    ErrCode = "ACCOUNT_INACTIVE"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Exams & registrations ─────────────────────────────────────────
	ErrRegistrationClosed  ErrCode = "REGISTRATION_CLOSED"
	ErrAlreadyRegistered   ErrCode = "ALREADY_REGISTERED"
	ErrInvalidTransition   ErrCode = "INVALID_STATUS_TRANSITION"
	ErrNotApproved         ErrCode = "REGISTRATION_NOT_APPROVED"
	ErrStudentInactive     ErrCode = "STUDENT_INACTIVE"
	ErrResultExists        ErrCode = "RESULT_EXISTS"
	ErrResultLocked        ErrCode = "RESULT_LOCKED"
	ErrInstitutionRequired ErrCode = "INSTITUTION_REQUIRED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid. Please sign in again."
	case ErrTokenExpired:
		return "Authentication token has expired. Please sign in again."
	case ErrAccountInactive:
		return "This account is inactive. Please contact your administrator."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to perform this action."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Resource cannot be deleted while other records depend on it."

	// ─── Exams & registrations ─────────────────────────────────────────
	case ErrRegistrationClosed:
		return "Registration for this exam is closed."
	case ErrAlreadyRegistered:
		return "The student is already registered for this exam."
	case ErrInvalidTransition:
		return "The registration has already been processed."
	case ErrNotApproved:
		return "The student does not hold an approved registration for this exam."
	case ErrStudentInactive:
		return "The student account is inactive."
	case ErrResultExists:
		return "A result already exists for this student and exam."
	case ErrResultLocked:
		return "Published results can only be amended by the ministry."
	case ErrInstitutionRequired:
		return "An institution must be specified."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
