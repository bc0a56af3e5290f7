package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrTooManyAttempts = ErrorResponse{
		Status:  "error",
		Error:   "too_many_attempts",
		Details: "Too many login attempts, try again later",
	}

	ErrAuthenticationRequired = ErrorResponse{
		Status:  "error",
		Error:   "authentication_required",
		Details: "Admin access required",
	}

	ErrCollectionNotFound = ErrorResponse{
		Status: "error",
		Error:  "collection_not_found",
	}

	ErrDocumentNotFound = ErrorResponse{
		Status: "error",
		Error:  "document_not_found",
	}

	ErrDocumentExists = ErrorResponse{
		Status:  "error",
		Error:   "document_exists",
		Details: "A document with this key already exists, choose a different slug",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
