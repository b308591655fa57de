// Package analyzer produces nutrition reports for food photos by calling a
// vision-language model.
package analyzer

import (
	"context"

	"github.com/mmynk/nutrimed/internal/apperr"
)

var (
	ErrNotConfigured = apperr.New(apperr.AnalyzerUnavailable, "analyzer is not configured; set OPENAI_API_KEY")
	ErrUnavailable   = apperr.New(apperr.AnalyzerUnavailable, "analyzer is unavailable, try again later")
	ErrEmptyImage    = apperr.New(apperr.InvalidInput, "image is empty")
)

// Request is one analysis job.
type Request struct {
	Image    []byte
	MIMEType string
	Profile  Profile
	// Question is the user's optional free-text description or question.
	Question string
}

// Analyzer turns a food photo and a medical profile into a text report.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// Unconfigured is the Analyzer used when no model credentials are set.
type Unconfigured struct{}

func (Unconfigured) Analyze(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
