package apperror

// Code identifies an error class. It is rendered verbatim in response bodies.
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField      Code = "REQUIRED_FIELD"
	CodeInvalidRequestBody Code = "INVALID_REQUEST_BODY"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// Upstream
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
)

// Slippage estimation error codes
const (
	CodeInvalidToken   Code = "INVALID_TOKEN"
	CodeInvalidAmount  Code = "INVALID_AMOUNT"
	CodeInvalidChainID Code = "INVALID_CHAIN_ID"
)

// Chain catalogue error codes
const (
	CodeChainNotSupported  Code = "CHAIN_NOT_SUPPORTED"
	CodeChainRPCConnection Code = "CHAIN_RPC_CONNECTION_FAILED"
	CodeChainIDMismatch    Code = "CHAIN_ID_MISMATCH"
)

// x402 payment error codes
const (
	CodePaymentRequired        Code = "PAYMENT_REQUIRED"
	CodePaymentInvalid         Code = "PAYMENT_INVALID"
	CodePaymentMalformed       Code = "PAYMENT_MALFORMED"
	CodePaymentReplayed        Code = "PAYMENT_REPLAYED"
	CodeFacilitatorUnavailable Code = "FACILITATOR_UNAVAILABLE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
