package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:      "Required field is missing",
	CodeInvalidRequestBody: "Request body is not valid JSON",
	CodeNotFound:           "Resource not found",
	CodeMethodNotAllowed:   "Method not allowed",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// Upstream
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",

	// Slippage estimation
	CodeInvalidToken:   "Token identifier must not be empty",
	CodeInvalidAmount:  "Trade amount must be a positive USD value",
	CodeInvalidChainID: "Chain id must be a positive integer",

	// Chains
	CodeChainNotSupported:  "Chain is not supported",
	CodeChainRPCConnection: "Failed to reach chain RPC endpoint",
	CodeChainIDMismatch:    "RPC endpoint reported an unexpected chain id",

	// Payments
	CodePaymentRequired:        "Payment required",
	CodePaymentInvalid:         "Payment verification failed",
	CodePaymentMalformed:       "Invalid X-PAYMENT header",
	CodePaymentReplayed:        "Payment has already been used",
	CodeFacilitatorUnavailable: "No payment facilitator could verify the payment",

	// Circuit breaker
	CodeCircuitOpen: "Circuit breaker is open",
}
