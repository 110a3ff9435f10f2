package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/vatreview/src/utils"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "iso date",
			input: "2025-01-31",
			want:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "irish dd-mm-yyyy",
			input: "31-01-2025",
			want:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "irish dd/mm/yyyy",
			input: "31/01/2025",
			want:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "textual day month year",
			input: "2 Jan 2025",
			want:  time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "quoted and padded",
			input: `  "2025-06-30"  `,
			want:  time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "excel serial",
			input: "45658",
			want:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "unix seconds",
			input: "1735689600",
			want:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "unix milliseconds",
			input: "1735689600000",
			want:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "unix nanoseconds",
			input: "1735689600000000000",
			want:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "garbage", input: "not-a-date", wantErr: true},
		{name: "numeric but out of range", input: "200000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.ParseFlexibleDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
