package httpdto

// Response is the uniform envelope for every HTTP reply. Exactly one of
// Data and Error is populated.
type Response[T any] struct {
	OK    bool       `json:"ok"`
	Data  T          `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody pairs the machine-readable code with a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{OK: true, Data: data}
}

func NewErrorResponse(message, code string) Response[any] {
	return Response[any]{Error: &ErrorBody{Code: code, Message: message}}
}
