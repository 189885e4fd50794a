// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRun prints the outcome of a pipeline run using the configured output format.
func (ow *OutWriter) WriteRun(output *schema.PipelineOutput, cfg *contract.Config, duration time.Duration) error {
	return PrintRunResults(output, cfg, duration)
}

// WriteResults prints a persisted result document using the configured output format.
func (ow *OutWriter) WriteResults(doc *schema.ResultDocument, cfg *contract.Config) error {
	return PrintResults(doc, cfg)
}

// WriteDimensionality prints a persisted dimensionality document using the configured output format.
func (ow *OutWriter) WriteDimensionality(doc *schema.DimensionalityDocument, cfg *contract.Config) error {
	return PrintDimensionality(doc, cfg)
}

// getMaxTableTextWidth calculates the maximum width for free-text cells (crime
// types) in table output based on terminal width.
func getMaxTableTextWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Cluster + Size + Centroid + Radius + Arrest + Cell columns with borders/padding
	baseWidth := 85

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}

// truncateText shortens s to width runes, marking the cut with an ellipsis.
func truncateText(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width < 4 {
		return s
	}
	return string(runes[:width-3]) + "..."
}
