package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Cluster quality label constants, keyed off the silhouette score.
const (
	StrongValue     = "Strong"     // Well separated structure
	ReasonableValue = "Reasonable" // Clear but overlapping structure
	WeakValue       = "Weak"       // Structure may be artificial
	NoneValue       = "None"       // No substantial structure
	InvalidValue    = "Invalid"    // Silhouette not computable
)

// Color variables for console output.
var (
	StrongColor     = color.New(color.FgGreen, color.Bold) // strongColor represents a trustworthy partition.
	ReasonableColor = color.New(color.FgCyan)              // reasonableColor represents a usable partition.
	WeakColor       = color.New(color.FgYellow)            // weakColor represents standard caution, not bold.
	NoneColor       = color.New(color.FgRed)               // noneColor represents no usable structure.
	InvalidColor    = color.New(color.FgMagenta, color.Bold)
)

// GetPlainLabel returns a plain text label for a silhouette score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(silhouette float64, valid bool) string {
	switch {
	case !valid:
		return InvalidValue
	case silhouette > 0.7:
		return StrongValue
	case silhouette > 0.5:
		return ReasonableValue
	case silhouette > 0.25:
		return WeakValue
	default:
		return NoneValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(silhouette float64, valid bool) string {
	text := GetPlainLabel(silhouette, valid)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case ReasonableValue:
		return ReasonableColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	case InvalidValue:
		return InvalidColor.Sprint(text)
	default:
		return NoneColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetTrackingDBFilePath returns the path to the SQLite DB file for run tracking.
func GetTrackingDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".patrolq_tracking.db"
	}
	return filepath.Join(homeDir, ".patrolq_tracking.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseFlag reads an incident flag column leniently: anything that is not
// a recognized true value counts as false.
func ParseFlag(s string) bool {
	v, err := ParseBoolString(s)
	return err == nil && v
}
