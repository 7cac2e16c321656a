package apperror

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func NotFound(message string) *Error {
	return &Error{Status: 404, Code: "NOT_FOUND", Message: message}
}

func Validation(message string, details map[string]any) *Error {
	return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func PermissionDenied(message string) *Error {
	return &Error{Status: 403, Code: "PERMISSION_DENIED", Message: message}
}

// InvalidTransition reports a lifecycle action attempted from a state that
// does not permit it.
func InvalidTransition(message string) *Error {
	return &Error{Status: 409, Code: "INVALID_TRANSITION", Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Status: 409, Code: code, Message: message}
}
