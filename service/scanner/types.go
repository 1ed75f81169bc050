package scanner

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/saravanakr/cloudposture/model"
	"github.com/saravanakr/cloudposture/service/storage"
)

// Probe is one security check bound to a single account/region config.
// Probes report misconfigurations as findings; an error means the probe
// could not complete its sweep at all.
type Probe interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// ProbeFactory builds a probe for one region's config. The scanner calls
// it once per region so clients are never shared across regions.
type ProbeFactory func(cfg aws.Config) Probe

// AccountScanResult is the outcome of scanning one account.
type AccountScanResult struct {
	AccountID int64             `json:"accountId"`
	Account   string            `json:"account"`
	Findings  []storage.Finding `json:"findings"`
	Err       error             `json:"-"`
}

// CredentialError marks a scan aborted because the account's stored
// credentials were rejected. Callers map it to a client error rather
// than a server fault.
type CredentialError struct {
	Account string
	Region  string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("invalid credentials for account %s in region %s: %v", e.Account, e.Region, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Service orchestrates scans across accounts and regions.
type Service interface {
	ScanAccount(ctx context.Context, accountID int64) (AccountScanResult, error)
	ScanAllAccounts(ctx context.Context) ([]AccountScanResult, error)
}
