package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/saravanakr/cloudposture/model"
)

func newTestStorage(t *testing.T) *service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cloudposture.db")
	svc, err := NewService(dbPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc.(*service)
}

func seedAccount(t *testing.T, svc Service) Account {
	t.Helper()
	acct, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		AccountID:   "111111111111",
		AccountName: "prod",
		Credentials: model.Credentials{AccessKeyID: "AKIAEXAMPLE", SecretAccessKey: "secret"},
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return acct
}

func TestAccountLifecycle(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()

	acct := seedAccount(t, svc)
	if acct.ID <= 0 {
		t.Fatalf("expected positive account id, got %d", acct.ID)
	}

	got, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.AccountID != "111111111111" || got.AccountName != "prod" {
		t.Fatalf("unexpected account: %+v", got)
	}
	if got.Credentials.AccessKeyID != "AKIAEXAMPLE" || got.Credentials.SessionToken != "" {
		t.Fatalf("unexpected credentials: %+v", got.Credentials)
	}

	if _, err := svc.GetAccount(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
}

func TestCreateAccountRejectsDuplicateExternalID(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()

	seedAccount(t, svc)
	_, err := svc.CreateAccount(ctx, CreateAccountInput{
		AccountID:   "111111111111",
		AccountName: "dup",
		Credentials: model.Credentials{AccessKeyID: "AKIAOTHER", SecretAccessKey: "secret"},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate external account id")
	}
}

func TestRegionUniquenessAndToggle(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	r1, err := svc.CreateRegion(ctx, acct.ID, "us-east-1", true)
	if err != nil {
		t.Fatalf("CreateRegion failed: %v", err)
	}
	if _, err := svc.CreateRegion(ctx, acct.ID, "us-east-1", false); !errors.Is(err, ErrDuplicateRegion) {
		t.Fatalf("expected ErrDuplicateRegion, got %v", err)
	}
	if _, err := svc.CreateRegion(ctx, acct.ID, "eu-west-1", false); err != nil {
		t.Fatalf("CreateRegion eu-west-1 failed: %v", err)
	}

	enabled, err := svc.GetEnabledRegions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetEnabledRegions failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Region != "us-east-1" {
		t.Fatalf("unexpected enabled regions: %+v", enabled)
	}

	updated, err := svc.SetRegionEnabled(ctx, acct.ID, r1.ID, false)
	if err != nil {
		t.Fatalf("SetRegionEnabled failed: %v", err)
	}
	if updated.Enabled {
		t.Fatalf("expected region disabled after toggle")
	}

	enabled, err = svc.GetEnabledRegions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetEnabledRegions failed: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("expected no enabled regions, got %d", len(enabled))
	}

	if _, err := svc.SetRegionEnabled(ctx, acct.ID, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown region, got %v", err)
	}

	all, err := svc.ListRegions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("ListRegions failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(all))
	}
}

func TestStoreAndFilterFindings(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	batch := []Finding{
		{Region: "us-east-1", ResourceID: "detector", ResourceType: "Detector", Service: "GuardDuty", Severity: model.SeverityHigh, Title: "Not Enabled", Description: "d"},
		{Region: "us-east-1", ResourceID: "key-1", ResourceType: "KMSKey", Service: "KMS", Severity: model.SeverityMedium, Title: "Rotation Disabled", Description: "d"},
		{Region: "eu-west-1", ResourceID: "db-1", ResourceType: "DBInstance", Service: "RDS", Severity: model.SeverityLow, Title: "No Backups", Description: "d"},
	}
	if err := svc.StoreFindings(ctx, acct.ID, batch); err != nil {
		t.Fatalf("StoreFindings failed: %v", err)
	}

	all, err := svc.GetFindings(ctx, FindingFilter{AccountID: acct.ID})
	if err != nil {
		t.Fatalf("GetFindings failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(all))
	}
	// Newest first: last inserted row leads within the batch.
	if all[0].ResourceID != "db-1" {
		t.Fatalf("expected creation-time descending order, got first=%s", all[0].ResourceID)
	}

	byRegion, err := svc.GetFindings(ctx, FindingFilter{AccountID: acct.ID, Region: "us-east-1"})
	if err != nil {
		t.Fatalf("GetFindings by region failed: %v", err)
	}
	if len(byRegion) != 2 {
		t.Fatalf("expected 2 us-east-1 findings, got %d", len(byRegion))
	}

	bySeverity, err := svc.GetFindings(ctx, FindingFilter{Severity: "HIGH"})
	if err != nil {
		t.Fatalf("GetFindings by severity failed: %v", err)
	}
	if len(bySeverity) != 1 || bySeverity[0].Service != "GuardDuty" {
		t.Fatalf("unexpected severity filter result: %+v", bySeverity)
	}

	byResource, err := svc.GetFindingsByResource(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetFindingsByResource failed: %v", err)
	}
	if len(byResource) != 1 || byResource[0].Service != "KMS" {
		t.Fatalf("unexpected resource lookup result: %+v", byResource)
	}
}

func TestFindingsAccumulateAcrossScans(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	f := Finding{Region: "us-east-1", ResourceID: "bucket-a", ResourceType: "Bucket",
		Service: "S3", Severity: model.SeverityHigh, Title: "Public Bucket", Description: "d"}
	if err := svc.StoreFindings(ctx, acct.ID, []Finding{f}); err != nil {
		t.Fatalf("first StoreFindings failed: %v", err)
	}
	if err := svc.StoreFindings(ctx, acct.ID, []Finding{f}); err != nil {
		t.Fatalf("second StoreFindings failed: %v", err)
	}

	all, err := svc.GetFindings(ctx, FindingFilter{AccountID: acct.ID})
	if err != nil {
		t.Fatalf("GetFindings failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected repeated scans to append, got %d findings", len(all))
	}
}

func TestStoreFindingsValidation(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	err := svc.StoreFindings(ctx, acct.ID, []Finding{
		{Region: "us-east-1", ResourceID: "r", ResourceType: "t", Service: "IAM", Severity: "CRITICAL", Title: "x", Description: "d"},
	})
	if err == nil {
		t.Fatalf("expected error for severity outside the enum")
	}

	err = svc.StoreFindings(ctx, 9999, []Finding{
		{Region: "us-east-1", ResourceID: "r", ResourceType: "t", Service: "IAM", Severity: model.SeverityLow, Title: "x", Description: "d"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}

	// Empty batch is a valid no-op write.
	if err := svc.StoreFindings(ctx, acct.ID, nil); err != nil {
		t.Fatalf("empty StoreFindings failed: %v", err)
	}
}

func TestFindingStats(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	if err := svc.StoreFindings(ctx, acct.ID, []Finding{
		{Region: "us-east-1", ResourceID: "a", ResourceType: "t", Service: "IAM", Severity: model.SeverityHigh, Title: "x", Description: "d"},
		{Region: "us-east-1", ResourceID: "b", ResourceType: "t", Service: "IAM", Severity: model.SeverityHigh, Title: "x", Description: "d"},
		{Region: "us-east-1", ResourceID: "c", ResourceType: "t", Service: "KMS", Severity: model.SeverityMedium, Title: "x", Description: "d"},
		{Region: "us-east-1", ResourceID: "d", ResourceType: "t", Service: "RDS", Severity: model.SeverityLow, Title: "x", Description: "d"},
	}); err != nil {
		t.Fatalf("StoreFindings failed: %v", err)
	}

	stats, err := svc.GetFindingStats(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetFindingStats failed: %v", err)
	}
	if stats.TotalFindings != 4 {
		t.Fatalf("expected 4 total findings, got %d", stats.TotalFindings)
	}
	if stats.BySeverity["HIGH"] != 2 || stats.BySeverity["MEDIUM"] != 1 || stats.BySeverity["LOW"] != 1 {
		t.Fatalf("unexpected severity counts: %+v", stats.BySeverity)
	}
	if stats.ByService["IAM"] != 2 {
		t.Fatalf("unexpected service counts: %+v", stats.ByService)
	}

	empty, err := svc.GetFindingStats(ctx, 9999)
	if err != nil {
		t.Fatalf("GetFindingStats for empty account failed: %v", err)
	}
	if empty.TotalFindings != 0 || len(empty.BySeverity) != 0 {
		t.Fatalf("expected empty stats, got %+v", empty)
	}
}

func TestDeleteAccountCascade(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	if _, err := svc.CreateRegion(ctx, acct.ID, "us-east-1", true); err != nil {
		t.Fatalf("CreateRegion failed: %v", err)
	}
	if err := svc.StoreFindings(ctx, acct.ID, []Finding{
		{Region: "us-east-1", ResourceID: "r", ResourceType: "t", Service: "IAM", Severity: model.SeverityHigh, Title: "x", Description: "d"},
	}); err != nil {
		t.Fatalf("StoreFindings failed: %v", err)
	}

	if err := svc.DeleteAccountCascade(ctx, acct.ID); err != nil {
		t.Fatalf("DeleteAccountCascade failed: %v", err)
	}

	if _, err := svc.GetAccount(ctx, acct.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected account gone, got %v", err)
	}
	regions, err := svc.ListRegions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("ListRegions failed: %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("expected regions gone, got %d", len(regions))
	}
	findings, err := svc.GetFindings(ctx, FindingFilter{AccountID: acct.ID})
	if err != nil {
		t.Fatalf("GetFindings failed: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected findings gone, got %d", len(findings))
	}

	if err := svc.DeleteAccountCascade(ctx, acct.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

// A rolled-back cascade must leave all three tables untouched.
func TestDeleteAccountCascadeRollback(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	acct := seedAccount(t, svc)

	if _, err := svc.CreateRegion(ctx, acct.ID, "us-east-1", true); err != nil {
		t.Fatalf("CreateRegion failed: %v", err)
	}
	if err := svc.StoreFindings(ctx, acct.ID, []Finding{
		{Region: "us-east-1", ResourceID: "r", ResourceType: "t", Service: "IAM", Severity: model.SeverityHigh, Title: "x", Description: "d"},
	}); err != nil {
		t.Fatalf("StoreFindings failed: %v", err)
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := deleteCascadeTx(ctx, tx, acct.ID); err != nil {
		t.Fatalf("deleteCascadeTx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := svc.GetAccount(ctx, acct.ID); err != nil {
		t.Fatalf("expected account to survive rollback: %v", err)
	}
	regions, err := svc.ListRegions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("ListRegions failed: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expected region to survive rollback, got %d", len(regions))
	}
	findings, err := svc.GetFindings(ctx, FindingFilter{AccountID: acct.ID})
	if err != nil {
		t.Fatalf("GetFindings failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected finding to survive rollback, got %d", len(findings))
	}
}
