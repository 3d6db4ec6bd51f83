package errs

import "net/http"

// HTTPStatus maps the kind of err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrKindInvalidInput:
		return http.StatusBadRequest
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindConstraint:
		return http.StatusConflict
	case ErrKindPermissionDenied:
		return http.StatusForbidden
	case ErrKindTimeout:
		return http.StatusGatewayTimeout
	case ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
