package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	apperrors "github.com/olusolaa/appliance-converge/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	return NewReporterWithWriter(cfg, os.Stdout, logger), nil
}

func NewReporterWithWriter(cfg Config, w io.Writer, logger ports.Logger) *Reporter {
	if f, ok := w.(*os.File); cfg.NoColor || !ok || !isTerminal(f) {
		color.NoColor = true
	}
	return &Reporter{config: cfg, writer: w, logger: logger}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, results []domain.ReconciliationResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No resources processed.")
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)

	title := "Converge Report"
	if slices.ContainsFunc(results, func(res domain.ReconciliationResult) bool { return res.Checked }) {
		title += " (check mode)"
	}
	fmt.Fprintln(tw, title)
	fmt.Fprintln(tw, strings.Repeat("=", len(title)))
	fmt.Fprintln(tw, "Status\tKind\tResource\tAction\tDetails")
	fmt.Fprintln(tw, "------\t----\t--------\t------\t-------")

	okCount, changedCount, failedCount := 0, 0, 0
	for _, res := range results {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var status, details string
		switch {
		case res.Error != nil:
			failedCount++
			status = red("[FAILED]")
			details = formatError(res.Error)
		case res.Changed:
			changedCount++
			status = yellow("[CHANGED]")
			details = formatDifferences(res.Differences)
		default:
			okCount++
			status = green("[OK]")
			details = "in desired state"
			if res.Facts != nil {
				details = fmt.Sprintf("%d fact(s) gathered", len(res.Facts))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", status, res.Kind, res.Identity.FullPath(), formatActions(res.Actions), details)
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Total Resources:\t%d\n", len(results))
	fmt.Fprintf(tw, "OK:\t%s\n", green(okCount))
	fmt.Fprintf(tw, "Changed:\t%s\n", yellow(changedCount))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(failedCount))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range results {
		r.writeTextDiffs(res)
		r.writeFacts(res)
	}
	return nil
}

func formatActions(actions []domain.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

func formatError(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.IsUserFacing {
		if appErr.SuggestedAction != "" {
			return fmt.Sprintf("%s (%s)", appErr.Message, appErr.SuggestedAction)
		}
		return appErr.Message
	}
	return err.Error()
}

func formatDifferences(diffs []domain.AttributeDiff) string {
	if len(diffs) == 0 {
		return "changed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d attribute(s) differ: ", len(diffs))
	for i, d := range diffs {
		if i > 0 {
			b.WriteString("; ")
		}
		if isMultiline(d.ExpectedValue) || isMultiline(d.ActualValue) {
			fmt.Fprintf(&b, "%s=[see diff below]", d.AttributeName)
			continue
		}
		fmt.Fprintf(&b, "%s=[desired: %s, remote: %s]", d.AttributeName, formatValue(d.ExpectedValue), formatValue(d.ActualValue))
	}
	return b.String()
}

func formatValue(value any) string {
	const maxLen = 60
	if value == nil {
		return "<unset>"
	}
	str := fmt.Sprintf("%v", value)
	if len(str) > maxLen {
		return str[:maxLen-3] + "..."
	}
	return str
}

func isMultiline(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "\n")
}

// writeTextDiffs renders multi-line string attributes (iRule bodies,
// monitor send strings) as line diffs.
func (r *Reporter) writeTextDiffs(res domain.ReconciliationResult) {
	for _, d := range res.Differences {
		if !isMultiline(d.ExpectedValue) && !isMultiline(d.ActualValue) {
			continue
		}
		remote, _ := d.ActualValue.(string)
		desired, _ := d.ExpectedValue.(string)
		fmt.Fprintf(r.writer, "\n%s %s %s:\n", res.Kind, res.Identity.FullPath(), d.AttributeName)
		fmt.Fprint(r.writer, lineDiff(remote, desired))
	}
}

func lineDiff(remote, desired string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(remote, desired)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	add := color.New(color.FgGreen).SprintFunc()
	del := color.New(color.FgRed).SprintFunc()

	var buf strings.Builder
	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				buf.WriteString(add("+ "+line) + "\n")
			case diffmatchpatch.DiffDelete:
				buf.WriteString(del("- "+line) + "\n")
			default:
				buf.WriteString("  " + line + "\n")
			}
		}
	}
	return buf.String()
}

func (r *Reporter) writeFacts(res domain.ReconciliationResult) {
	if res.Facts == nil {
		return
	}
	fmt.Fprintf(r.writer, "\nFacts for %s %s:\n", res.Kind, res.Identity.FullPath())
	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	for _, k := range slices.Sorted(maps.Keys(res.Facts)) {
		fmt.Fprintf(tw, "  %s:\t%v\n", k, res.Facts[k])
	}
	tw.Flush()
}
