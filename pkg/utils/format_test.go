package utils

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{
			name:     "bytes",
			bytes:    500,
			expected: "500 B",
		},
		{
			name:     "kilobytes",
			bytes:    1500,
			expected: "1.5 KB",
		},
		{
			name:     "megabytes",
			bytes:    1500000,
			expected: "1.4 MB",
		},
		{
			name:     "gigabytes",
			bytes:    1500000000,
			expected: "1.4 GB",
		},
		{
			name:     "terabytes",
			bytes:    1500000000000,
			expected: "1.4 TB",
		},
		{
			name:     "zero bytes",
			bytes:    0,
			expected: "0 B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatSize(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatSize(%d) = %s; want %s", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{
			name:     "sub second",
			d:        400 * time.Millisecond,
			expected: "0s",
		},
		{
			name:     "seconds",
			d:        42 * time.Second,
			expected: "42s",
		},
		{
			name:     "minutes",
			d:        3*time.Minute + 5*time.Second,
			expected: "3m05s",
		},
		{
			name:     "hours",
			d:        2*time.Hour + 7*time.Second,
			expected: "2h00m07s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDuration(tt.d)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %s; want %s", tt.d, result, tt.expected)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(47.368421); got != "47.4%" {
		t.Errorf("FormatPercent(47.368421) = %s; want 47.4%%", got)
	}
}
