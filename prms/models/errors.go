package models

const (
	MsgAllFieldsRequired  = "All fields are required"
	MsgFillRequiredFields = "Please fill in all required fields"
)

// ValidationError is raised before any request is sent when operator input
// is incomplete.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
