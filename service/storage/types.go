package storage

import (
	"context"
	"errors"
	"time"

	"github.com/saravanakr/cloudposture/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateRegion is returned when a (account, region) pair already
// exists.
var ErrDuplicateRegion = errors.New("region already exists for account")

// Service defines the relational store for accounts, regions and findings.
type Service interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccountCascade(ctx context.Context, id int64) error

	CreateRegion(ctx context.Context, accountID int64, region string, enabled bool) (Region, error)
	ListRegions(ctx context.Context, accountID int64) ([]Region, error)
	GetEnabledRegions(ctx context.Context, accountID int64) ([]Region, error)
	SetRegionEnabled(ctx context.Context, accountID, regionID int64, enabled bool) (Region, error)

	StoreFindings(ctx context.Context, accountID int64, findings []Finding) error
	GetFindings(ctx context.Context, filter FindingFilter) ([]Finding, error)
	GetFindingsByResource(ctx context.Context, resourceID string) ([]Finding, error)
	GetFindingStats(ctx context.Context, accountID int64) (FindingStats, error)

	Close() error
}

// CreateAccountInput is the payload for registering an AWS account.
type CreateAccountInput struct {
	AccountID   string
	AccountName string
	Credentials model.Credentials
}

// Account is a registered AWS account. Credential fields are part of the
// stored shape and surface through the API unchanged.
type Account struct {
	ID          int64             `json:"id"`
	AccountID   string            `json:"accountId"`
	AccountName string            `json:"accountName"`
	Credentials model.Credentials `json:"credentials"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Region is a scan target owned by exactly one account. The
// (account, region) pair is unique.
type Region struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"accountId"`
	Region    string    `json:"region"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// Finding is the stored shape: a probe finding stamped with its account id
// and region code. The region is denormalized so a finding outlives the
// Region row it was scanned under. Findings are immutable once written
// and accumulate across scans.
type Finding struct {
	ID           int64          `json:"id"`
	AccountID    int64          `json:"accountId"`
	Region       string         `json:"region"`
	ResourceID   string         `json:"resourceId"`
	ResourceType string         `json:"resourceType"`
	ResourceName string         `json:"resourceName,omitempty"`
	Service      string         `json:"service"`
	Severity     model.Severity `json:"severity"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Remediation  string         `json:"remediation"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// FindingFilter narrows GetFindings. Zero values mean no filter.
type FindingFilter struct {
	AccountID int64
	Region    string
	Service   string
	Severity  string
}

// FindingStats aggregates finding counts, optionally per account.
type FindingStats struct {
	TotalFindings int            `json:"totalFindings"`
	BySeverity    map[string]int `json:"bySeverity"`
	ByService     map[string]int `json:"byService"`
}
