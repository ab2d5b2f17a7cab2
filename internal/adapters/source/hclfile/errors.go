package hclfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// DiagnosticsError carries the HCL diagnostics of a failed step.
type DiagnosticsError struct {
	Operation string
	Path      string
	Diags     hcl.Diagnostics
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("HCL %s error in %q: %s", e.Operation, e.Path, e.Diags.Error())
}

// ValueConversionError reports a cty value that has no parameter form.
type ValueConversionError struct {
	Attribute string
	Err       error
}

func (e *ValueConversionError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("cannot convert value of %q: %v", e.Attribute, e.Err)
	}
	return fmt.Sprintf("cannot convert value: %v", e.Err)
}

func (e *ValueConversionError) Unwrap() error { return e.Err }

func errorDiag(summary, detail string, subject *hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{Severity: hcl.DiagError, Summary: summary, Detail: detail, Subject: subject}
}
