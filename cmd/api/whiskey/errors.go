package whiskey

import "fmt"

const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_SERVER_ERROR"
)

type ErrResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e ErrResponse) Error() string {
	return e.Message
}

// Is matches on Code, so a field-specific validation error still satisfies
// errors.Is(err, ErrInvalidInput).
func (e ErrResponse) Is(target error) bool {
	t, ok := target.(ErrResponse)
	return ok && t.Code == e.Code
}

var ErrInvalidInput = ErrResponse{Code: CodeBadRequest, Message: "invalid input"}
var ErrNotFound = ErrResponse{Code: CodeNotFound, Message: "Whiskey not found"}
var ErrConflict = ErrResponse{Code: CodeConflict, Message: "A whiskey with this data already exists"}
var ErrInternal = ErrResponse{Code: CodeInternal, Message: "An unexpected error occurred"}

var ErrResponseEntryInvalidJSON = ErrResponse{Code: CodeBadRequest, Message: "invalid json request: "}
var ErrResponseIdInvalidFormat = ErrResponse{Code: CodeBadRequest, Message: "Invalid UUID format for id parameter"}

func invalidField(field, message string) ErrResponse {
	return ErrResponse{
		Code:    CodeBadRequest,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// InvalidSortField is returned by stores asked to order by a field they do not know.
func InvalidSortField(field string) ErrResponse {
	return ErrResponse{
		Code:    CodeBadRequest,
		Message: fmt.Sprintf("Cannot sort by unknown field %q", field),
		Details: map[string]any{"sort": field},
	}
}
