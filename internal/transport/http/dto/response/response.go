package response

import "sitecontent/internal/domain/models"

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Status  string            `json:"status"`
	Error   string            `json:"error"`
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func ErrorResponseWithDetails(err, details string) ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Error:   err,
		Details: details,
	}
}

// WithDetails возвращает копию ответа; общие значения ошибок не меняются.
func (e ErrorResponse) WithDetails(details string) ErrorResponse {
	e.Details = details
	return e
}

func NewValidationErrorResponse(verr *models.ValidationError) ValidationErrorResponse {
	resp := ValidationErrorResponse{
		Status:  "error",
		Error:   "validation_failed",
		Missing: verr.Missing,
	}
	if len(verr.Invalid) > 0 {
		resp.Invalid = make(map[string]string, len(verr.Invalid))
		for _, fe := range verr.Invalid {
			resp.Invalid[fe.Field] = fe.Reason
		}
	}
	return resp
}
