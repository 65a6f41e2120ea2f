package serverutils

// ApiResponse is the success envelope every endpoint returns.
type ApiResponse[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// ApiError is the error envelope. ErrorCode carries the stable machine
// readable code; Message is for humans.
type ApiError struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  "ok",
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(errorCode, message string) ApiError {
	return ApiError{
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
	}
}
