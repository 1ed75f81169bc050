package model

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{in: "HIGH", want: SeverityHigh},
		{in: "MEDIUM", want: SeverityMedium},
		{in: "LOW", want: SeverityLow},
		{in: "high", wantErr: true},
		{in: "CRITICAL", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseSeverity(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSeverity(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
