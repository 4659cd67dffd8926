package series

import (
	"testing"
	"time"
)

// TestParseTolerance tests all three tolerance spellings: frequency
// aliases, Go durations, and ISO-8601 periods
func TestParseTolerance(t *testing.T) {
	tests := []struct {
		name      string
		tolerance string
		want      time.Duration
		wantErr   bool
	}{
		{name: "daily alias", tolerance: "D", want: 24 * time.Hour},
		{name: "hourly alias", tolerance: "H", want: time.Hour},
		{name: "minute alias", tolerance: "min", want: time.Minute},
		{name: "legacy minute alias", tolerance: "T", want: time.Minute},
		{name: "second alias", tolerance: "S", want: time.Second},
		{name: "15 minute alias", tolerance: "15min", want: 15 * time.Minute},
		{name: "multi-day alias", tolerance: "2D", want: 48 * time.Hour},
		{name: "six hour alias", tolerance: "6H", want: 6 * time.Hour},
		{name: "go duration minutes", tolerance: "15m", want: 15 * time.Minute},
		{name: "go duration hours", tolerance: "24h", want: 24 * time.Hour},
		{name: "iso period minutes", tolerance: "PT15M", want: 15 * time.Minute},
		{name: "iso period day", tolerance: "P1D", want: 24 * time.Hour},
		{name: "surrounding whitespace", tolerance: " 15min ", want: 15 * time.Minute},
		{name: "empty", tolerance: "", wantErr: true},
		{name: "garbage", tolerance: "sometimes", wantErr: true},
		{name: "negative duration", tolerance: "-15m", wantErr: true},
		{name: "zero count alias", tolerance: "0min", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTolerance(tt.tolerance)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTolerance(%q) should fail", tt.tolerance)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTolerance(%q) error = %v", tt.tolerance, err)
			}
			if got != tt.want {
				t.Errorf("ParseTolerance(%q) = %v, want %v", tt.tolerance, got, tt.want)
			}
		})
	}
}
