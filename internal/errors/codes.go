package errors

// Error codes shown alongside user-facing messages.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate signup
	AuthSignupFailed       = "AUTH_SIGNUP_FAILED"
	AuthLoginFailed        = "AUTH_LOGIN_FAILED"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	ResourceConflict = "RESOURCE_CONFLICT"

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewTextRequired  = "REVIEW_TEXT_REQUIRED"

	// ==================== Analysis (ANALYSIS_) ====================
	AnalysisFailed = "ANALYSIS_FAILED"
	AnalysisNotRun = "ANALYSIS_NOT_RUN"
	AnalysisExport = "ANALYSIS_EXPORT_FAILED"

	// ==================== Rate limiting (RATE_) ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError      = "INTERNAL_SERVER_ERROR"
	InternalExternalAPI      = "INTERNAL_EXTERNAL_API"      // storefront API unreachable or 5xx
	InternalExternalResponse = "INTERNAL_EXTERNAL_RESPONSE" // storefront API answered something unreadable
	InternalConfigError      = "INTERNAL_CONFIG_ERROR"
)
