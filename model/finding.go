// Package model holds the domain types shared across services.
package model

import "fmt"

// Severity classifies the impact of a finding. Only the three listed
// values are valid; the storage layer enforces the same set.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ParseSeverity validates a severity label.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s), nil
	}
	return "", fmt.Errorf("invalid severity %q", s)
}

// Finding is a single detected security condition as emitted by a probe.
// Probes do not know which account or region they were pointed at; the
// scanner stamps those before persistence.
type Finding struct {
	ResourceID   string
	ResourceType string
	ResourceName string
	Service      string
	Severity     Severity
	Title        string
	Description  string
	Remediation  string
}
