package errors

import "net/http"

// Error code constants. Errors carry code + message; backend logs are
// always English, the frontend owns translation.

// Approval chain error codes.
const (
	CodeNoApprovalChain       = "NO_APPROVAL_CHAIN"
	CodeStepAlreadyProcessed  = "STEP_ALREADY_PROCESSED"
	CodeApproverNotAuthorized = "APPROVER_NOT_AUTHORIZED"
	CodePolicyNotFound        = "POLICY_NOT_FOUND"
	CodeChainAlreadyExists    = "CHAIN_ALREADY_EXISTS"
)

// Entity error codes.
const (
	CodeEntityNotFound    = "ENTITY_NOT_FOUND"
	CodeUnknownEntityType = "UNKNOWN_ENTITY_TYPE"
)

// Member/tenant error codes.
const (
	CodeMemberNotFound = "MEMBER_NOT_FOUND"
	CodeTenantRequired = "TENANT_REQUIRED"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Validation error codes.
const (
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
)

// ErrUnknownEntityTypef creates a bad-request error for an unsupported
// entity type path segment.
func ErrUnknownEntityTypef(entityType string) *AppError {
	return &AppError{
		Code:       CodeUnknownEntityType,
		Message:    "unsupported entity type: " + entityType,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrMemberNotFoundf creates a member not found error.
func ErrMemberNotFoundf(memberID string) *AppError {
	return NotFound(CodeMemberNotFound, "member", memberID)
}
