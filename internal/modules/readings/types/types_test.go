package types

import "testing"

func TestStatus(t *testing.T) {
	tests := []struct {
		in    Status
		valid bool
		str   string
	}{
		{in: StatusCooling, valid: true, str: "COOLING"},
		{in: StatusOff, valid: true, str: "OFF"},
		{in: StatusHeating, valid: true, str: "HEATING"},
		{in: Status(2), valid: false, str: "UNKNOWN"},
		{in: Status(-2), valid: false, str: "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.valid {
			t.Errorf("Status(%d).Valid() = %v, want %v", tt.in, got, tt.valid)
		}
		if got := tt.in.String(); got != tt.str {
			t.Errorf("Status(%d).String() = %q, want %q", tt.in, got, tt.str)
		}
	}
}
