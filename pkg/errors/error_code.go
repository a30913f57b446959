package errors

// ErrorCode classifies failures so callers can map them to request failures
// without string matching.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = 0

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPeriod        ErrorCode = 101
	ErrCodeInvalidMultiplier    ErrorCode = 102
	ErrCodeUnknownStrategy      ErrorCode = 103

	// Data errors (200-299)
	ErrCodeInsufficientHistory ErrorCode = 200
	ErrCodeDataIntegrity       ErrorCode = 201
	ErrCodeDataParse           ErrorCode = 202

	// Storage errors (300-399)
	ErrCodeStorage  ErrorCode = 300
	ErrCodeNotFound ErrorCode = 301
)

// IsConfiguration reports whether code belongs to the configuration range.
func (c ErrorCode) IsConfiguration() bool {
	return c >= 100 && c < 200
}
