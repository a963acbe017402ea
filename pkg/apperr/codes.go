package apperr

type Code string

const (
	CodeUnknown                 Code = "UNKNOWN"
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodeNotFound                Code = "NOT_FOUND"
	CodeCreateFailed            Code = "CREATE_FAILED"
	CodeParticipantCreateFailed Code = "PARTICIPANT_CREATE_FAILED"
	CodePartialFailure          Code = "PARTIAL_FAILURE"
	CodeUnauthenticated         Code = "UNAUTHENTICATED"
	CodePermissionDenied        Code = "PERMISSION_DENIED"
	CodeInternal                Code = "INTERNAL"
)
