package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Compact bool `mapstructure:"compact" yaml:"compact"`
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
	return &Reporter{config: cfg, writer: w, logger: logger}
}

type jsonReport struct {
	CheckMode bool             `json:"check_mode"`
	Summary   jsonSummary      `json:"summary"`
	Results   []jsonResultItem `json:"results"`
}

type jsonSummary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

type jsonResultItem struct {
	Kind         domain.ResourceKind `json:"kind"`
	Name         string              `json:"name"`
	Partition    string              `json:"partition"`
	FullPath     string              `json:"full_path"`
	Changed      bool                `json:"changed"`
	Actions      []domain.Action     `json:"actions,omitempty"`
	Differences  []jsonAttributeDiff `json:"differences,omitempty"`
	Facts        map[string]any      `json:"facts,omitempty"`
	Source       string              `json:"source,omitempty"`
	ErrorCode    string              `json:"error_code,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

type jsonAttributeDiff struct {
	Attribute string `json:"attribute"`
	Desired   any    `json:"desired"`
	Remote    any    `json:"remote"`
	Details   string `json:"details,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, results []domain.ReconciliationResult) error {
	report := jsonReport{
		Summary: jsonSummary{Total: len(results)},
		Results: make([]jsonResultItem, 0, len(results)),
	}

	for _, res := range results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}

		switch {
		case res.Error != nil:
			report.Summary.Failed++
		case res.Changed:
			report.Summary.Changed++
		default:
			report.Summary.OK++
		}
		report.CheckMode = report.CheckMode || res.Checked

		item := jsonResultItem{
			Kind:      res.Kind,
			Name:      res.Identity.Name,
			Partition: res.Identity.Partition,
			FullPath:  res.Identity.FullPath(),
			Changed:   res.Changed,
			Actions:   res.Actions,
			Facts:     res.Facts,
			Source:    res.Source,
		}
		if res.Error != nil {
			item.ErrorCode = errors.GetCode(res.Error).String()
			item.ErrorMessage = res.Error.Error()
		}
		for _, d := range res.Differences {
			item.Differences = append(item.Differences, jsonAttributeDiff{
				Attribute: d.AttributeName,
				Desired:   d.ExpectedValue,
				Remote:    d.ActualValue,
				Details:   d.Details,
			})
		}
		report.Results = append(report.Results, item)
	}

	encoder := json.NewEncoder(r.writer)
	if !r.config.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return errors.Wrap(err, errors.CodeReportError, fmt.Sprintf("failed to encode JSON report: %v", err))
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
