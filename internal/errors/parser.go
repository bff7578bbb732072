package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

// ErrorInfo describes an error for display
type ErrorInfo struct {
	Code    string // see codes.go
	Message string // user-facing message
	Status  int    // HTTP status the page should answer with
}

// ParseError turns an error from the stores or the API client into a code
// and a message a visitor can act on. context names what was being done,
// e.g. "product", "review create", "login".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
			Status:  http.StatusInternalServerError,
		}
	}

	contextLower := strings.ToLower(context)
	serverMsg := shopapi.ServerMessage(err)

	switch {
	case errors.Is(err, shopapi.ErrInvalidConfig):
		return ErrorInfo{
			Code:    InternalConfigError,
			Message: "The store is not configured correctly",
			Status:  http.StatusInternalServerError,
		}

	case errors.Is(err, shopapi.ErrInvalidInput):
		return parseValidationError(err.Error())

	case errors.Is(err, shopapi.ErrNotFound):
		return ErrorInfo{
			Code:    notFoundCode(contextLower),
			Message: getNotFoundMessage(contextLower),
			Status:  http.StatusNotFound,
		}

	case errors.Is(err, shopapi.ErrUnauthorized):
		var apiErr *shopapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			return ErrorInfo{
				Code:    AuthzAdminOnly,
				Message: orDefault(serverMsg, "Only administrators can do that"),
				Status:  http.StatusForbidden,
			}
		}
		if strings.Contains(contextLower, "login") {
			return ErrorInfo{
				Code:    AuthInvalidCredentials,
				Message: orDefault(serverMsg, "Invalid email or password"),
				Status:  http.StatusUnauthorized,
			}
		}
		return ErrorInfo{
			Code:    AuthUnauthorized,
			Message: "Please log in to continue",
			Status:  http.StatusUnauthorized,
		}

	case errors.Is(err, shopapi.ErrConflict):
		if strings.Contains(contextLower, "signup") {
			return ErrorInfo{
				Code:    AuthEmailAlreadyExists,
				Message: orDefault(serverMsg, "An account with this email already exists"),
				Status:  http.StatusConflict,
			}
		}
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: orDefault(serverMsg, "The request conflicts with the current state"),
			Status:  http.StatusConflict,
		}

	case errors.Is(err, shopapi.ErrBadRequest):
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: orDefault(serverMsg, "The request was rejected, please check your input"),
			Status:  http.StatusBadRequest,
		}

	case errors.Is(err, shopapi.ErrNetwork), errors.Is(err, shopapi.ErrServer):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "The store is not responding right now. Please try again shortly",
			Status:  http.StatusBadGateway,
		}

	case errors.Is(err, shopapi.ErrDecode), errors.Is(err, shopapi.ErrMissingID):
		return ErrorInfo{
			Code:    InternalExternalResponse,
			Message: "The store sent a response we could not read",
			Status:  http.StatusBadGateway,
		}

	case errors.Is(err, shopapi.ErrUnsuccessful):
		return ErrorInfo{
			Code:    failureCode(contextLower, InternalExternalAPI),
			Message: orDefault(serverMsg, getDefaultErrorMessage(contextLower)),
			Status:  http.StatusBadGateway,
		}
	}

	return ErrorInfo{
		Code:    failureCode(contextLower, InternalServerError),
		Message: getDefaultErrorMessage(contextLower),
		Status:  http.StatusInternalServerError,
	}
}

func parseValidationError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)
	info := ErrorInfo{Code: ValidationInvalidInput, Message: "Please check your input", Status: http.StatusBadRequest}

	switch {
	case strings.Contains(errLower, "rating"):
		info.Code = ReviewInvalidRating
		info.Message = "Rating must be between 1 and 5"
	case strings.Contains(errLower, "review text"):
		info.Code = ReviewTextRequired
		info.Message = "Please write something about the product"
	case strings.Contains(errLower, "id is required"):
		info.Code = ValidationInvalidID
		info.Message = "That link is missing an id"
	case strings.Contains(errLower, "required"):
		info.Code = ValidationRequired
		info.Message = "Please fill in every field"
	}
	return info
}

// failureCode names the operation that failed when nothing more specific
// is known.
func failureCode(context, fallback string) string {
	switch {
	case strings.Contains(context, "signup"):
		return AuthSignupFailed
	case strings.Contains(context, "login"):
		return AuthLoginFailed
	case strings.Contains(context, "analy"):
		return AnalysisFailed
	}
	return fallback
}

func notFoundCode(context string) string {
	switch {
	case strings.Contains(context, "product"):
		return ProductNotFound
	case strings.Contains(context, "review"):
		return ReviewNotFound
	}
	return ResourceNotFound
}

// getNotFoundMessage picks a not found message for the context
func getNotFoundMessage(context string) string {
	if strings.Contains(context, "product") {
		return "We could not find that product"
	}
	if strings.Contains(context, "review") {
		return "That review no longer exists"
	}
	if strings.Contains(context, "user") {
		return "We could not find that account"
	}
	return "The requested page could not be found"
}

// getDefaultErrorMessage picks a fallback message for the context
func getDefaultErrorMessage(context string) string {
	switch {
	case strings.Contains(context, "signup"):
		return "Signup failed"
	case strings.Contains(context, "login"):
		return "Login failed"
	case strings.Contains(context, "create"):
		return "Could not post your review. Please try again"
	case strings.Contains(context, "delete"):
		return "Could not delete the review. Please try again"
	case strings.Contains(context, "analy"):
		return "Review analysis failed. Please try again"
	}
	return "Something went wrong. Please try again shortly"
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
