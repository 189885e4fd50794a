package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		valid    bool
		expected string
	}{
		{
			name:     "invalid trial",
			input:    0.9,
			valid:    false,
			expected: InvalidValue,
		},
		{
			name:     "negative score",
			input:    -0.2,
			valid:    true,
			expected: NoneValue,
		},
		{
			name:     "exactly weak threshold",
			input:    0.25,
			valid:    true,
			expected: NoneValue,
		},
		{
			name:     "just above weak",
			input:    0.26,
			valid:    true,
			expected: WeakValue,
		},
		{
			name:     "reasonable",
			input:    0.6,
			valid:    true,
			expected: ReasonableValue,
		},
		{
			name:     "strong",
			input:    0.71,
			valid:    true,
			expected: StrongValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input, tt.valid))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		valid bool
		label string
	}{
		{"none", 0.1, true, NoneValue},
		{"weak", 0.3, true, WeakValue},
		{"reasonable", 0.55, true, ReasonableValue},
		{"strong", 0.8, true, StrongValue},
		{"invalid", -1, false, InvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.score, tt.valid)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetTrackingDBFilePath(t *testing.T) {
	path := GetTrackingDBFilePath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, ".patrolq_tracking.db")

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseFlag(t *testing.T) {
	assert.True(t, ParseFlag("true"))
	assert.True(t, ParseFlag(" Yes "))
	assert.True(t, ParseFlag("1"))
	assert.False(t, ParseFlag("false"))
	assert.False(t, ParseFlag("N/A"))
	assert.False(t, ParseFlag(""))
}

func TestWrapStage(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapStage(schema.StageClean, nil))
	})

	t.Run("sentinel is still matchable", func(t *testing.T) {
		err := WrapStage(schema.StageClean, fmt.Errorf("after filters: %w", ErrDataExhausted))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDataExhausted)
		assert.Equal(t, "clean: after filters: no rows left after cleaning", err.Error())

		var se *StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, schema.StageClean, se.Stage)
	})

	t.Run("innermost stage wins", func(t *testing.T) {
		inner := WrapStage(schema.StageReduce, ErrInvalidComponentCount)
		outer := WrapStage(schema.StageSweep, inner)

		var se *StageError
		require.True(t, errors.As(outer, &se))
		assert.Equal(t, schema.StageReduce, se.Stage)
	})
}
