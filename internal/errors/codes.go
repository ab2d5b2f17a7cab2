package errors

type Code string

const (
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL_ERROR"

	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Reconciliation taxonomy
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeTransport        Code = "TRANSPORT_ERROR"
	CodeTransportAuth    Code = "TRANSPORT_AUTH_ERROR"
	CodeConfiguration    Code = "CONFIGURATION_ERROR"

	// Desired-state sources
	CodeSourceReadError  Code = "SOURCE_READ_ERROR"
	CodeSourceParseError Code = "SOURCE_PARSE_ERROR"
	CodeHCLEvalError     Code = "HCL_EVAL_ERROR"

	CodeNotImplemented Code = "NOT_IMPLEMENTED"
	CodeReportError    Code = "REPORT_ERROR"
)

func (c Code) String() string {
	return string(c)
}
