// Package storage persists accounts, scan regions and findings in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saravanakr/cloudposture/model"
	_ "modernc.org/sqlite"
)

const defaultDBPath = "~/.cloudposture/cloudposture.db"

// NewService creates a SQLite-backed storage service.
func NewService(dbPath string) (Service, error) {
	resolved, err := resolvePath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &service{db: db, dbPath: resolved}, nil
}

type service struct {
	db     *sql.DB
	dbPath string
}

func resolvePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		p = defaultDBPath
	}
	if strings.HasPrefix(p, "~/") || p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home dir: %w", err)
		}
		if p == "~" {
			p = home
		} else {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(p), nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (Account, error) {
	if input.AccountID == "" {
		return Account{}, errors.New("account id is required")
	}
	if input.Credentials.AccessKeyID == "" || input.Credentials.SecretAccessKey == "" {
		return Account{}, errors.New("access key id and secret access key are required")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, account_name, access_key_id, secret_access_key, session_token)
		VALUES (?, ?, ?, ?, ?)
	`, input.AccountID, input.AccountName, input.Credentials.AccessKeyID,
		input.Credentials.SecretAccessKey, nullableString(input.Credentials.SessionToken))
	if err != nil {
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *service) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, account_name, access_key_id, secret_access_key, session_token, created_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

func (s *service) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, account_name, access_key_id, secret_access_key, session_token, created_at
		FROM accounts ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccountCascade removes an account together with its regions and
// findings. The delete is atomic: any failure rolls back all three tables.
func (s *service) DeleteAccountCascade(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteCascadeTx(ctx, tx, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// deleteCascadeTx deletes findings, then regions, then the account inside
// the given transaction.
func deleteCascadeTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE account_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM regions WHERE account_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

func (s *service) CreateRegion(ctx context.Context, accountID int64, region string, enabled bool) (Region, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return Region{}, errors.New("region is required")
	}
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return Region{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO regions (account_id, region, enabled) VALUES (?, ?, ?)
	`, accountID, region, boolToInt(enabled))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Region{}, fmt.Errorf("%w: %s", ErrDuplicateRegion, region)
		}
		return Region{}, fmt.Errorf("failed to create region: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Region{}, err
	}
	return s.getRegion(ctx, id)
}

func (s *service) getRegion(ctx context.Context, id int64) (Region, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, region, enabled, created_at FROM regions WHERE id = ?
	`, id)
	var r Region
	var enabled int
	if err := row.Scan(&r.ID, &r.AccountID, &r.Region, &enabled, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Region{}, ErrNotFound
		}
		return Region{}, err
	}
	r.Enabled = enabled != 0
	return r, nil
}

func (s *service) ListRegions(ctx context.Context, accountID int64) ([]Region, error) {
	return s.queryRegions(ctx, `
		SELECT id, account_id, region, enabled, created_at
		FROM regions WHERE account_id = ? ORDER BY region ASC
	`, accountID)
}

func (s *service) GetEnabledRegions(ctx context.Context, accountID int64) ([]Region, error) {
	return s.queryRegions(ctx, `
		SELECT id, account_id, region, enabled, created_at
		FROM regions WHERE account_id = ? AND enabled = 1 ORDER BY region ASC
	`, accountID)
}

func (s *service) queryRegions(ctx context.Context, query string, args ...any) ([]Region, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regions := []Region{}
	for rows.Next() {
		var r Region
		var enabled int
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Region, &enabled, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Enabled = enabled != 0
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

func (s *service) SetRegionEnabled(ctx context.Context, accountID, regionID int64, enabled bool) (Region, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE regions SET enabled = ? WHERE id = ? AND account_id = ?
	`, boolToInt(enabled), regionID, accountID)
	if err != nil {
		return Region{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Region{}, err
	}
	if n == 0 {
		return Region{}, ErrNotFound
	}
	return s.getRegion(ctx, regionID)
}

// StoreFindings bulk-inserts one scan's findings for an account. The write
// is all-or-nothing; an empty batch still validates the account.
func (s *service) StoreFindings(ctx context.Context, accountID int64, findings []Finding) error {
	for _, f := range findings {
		if _, err := model.ParseSeverity(string(f.Severity)); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, accountID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		err = ErrNotFound
		return err
	}

	for _, f := range findings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO findings (
				account_id, region, resource_id, resource_type, resource_name,
				service, severity, title, description, remediation
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, accountID, f.Region, f.ResourceID, f.ResourceType, nullableString(f.ResourceName),
			f.Service, string(f.Severity), f.Title, f.Description, f.Remediation)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func (s *service) GetFindings(ctx context.Context, filter FindingFilter) ([]Finding, error) {
	query := `
		SELECT id, account_id, region, resource_id, resource_type, resource_name,
			service, severity, title, description, remediation, created_at
		FROM findings
	`
	where := []string{}
	args := []any{}
	if filter.AccountID != 0 {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Region != "" {
		where = append(where, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.Service != "" {
		where = append(where, "service = ?")
		args = append(args, filter.Service)
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	return s.queryFindings(ctx, query, args...)
}

func (s *service) GetFindingsByResource(ctx context.Context, resourceID string) ([]Finding, error) {
	return s.queryFindings(ctx, `
		SELECT id, account_id, region, resource_id, resource_type, resource_name,
			service, severity, title, description, remediation, created_at
		FROM findings WHERE resource_id = ? ORDER BY created_at DESC, id DESC
	`, resourceID)
}

func (s *service) queryFindings(ctx context.Context, query string, args ...any) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	findings := []Finding{}
	for rows.Next() {
		var f Finding
		var name sql.NullString
		var severity string
		if err := rows.Scan(&f.ID, &f.AccountID, &f.Region, &f.ResourceID, &f.ResourceType,
			&name, &f.Service, &severity, &f.Title, &f.Description, &f.Remediation, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ResourceName = name.String
		f.Severity = model.Severity(severity)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// GetFindingStats aggregates counts by severity and service. accountID 0
// aggregates across all accounts.
func (s *service) GetFindingStats(ctx context.Context, accountID int64) (FindingStats, error) {
	stats := FindingStats{
		BySeverity: map[string]int{},
		ByService:  map[string]int{},
	}

	where := ""
	args := []any{}
	if accountID != 0 {
		where = " WHERE account_id = ?"
		args = append(args, accountID)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`+where, args...).Scan(&stats.TotalFindings); err != nil {
		return FindingStats{}, err
	}
	if err := s.countBy(ctx, "severity", where, args, stats.BySeverity); err != nil {
		return FindingStats{}, err
	}
	if err := s.countBy(ctx, "service", where, args, stats.ByService); err != nil {
		return FindingStats{}, err
	}
	return stats, nil
}

func (s *service) countBy(ctx context.Context, column, where string, args []any, out map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM findings%s GROUP BY %s`, column, where, column), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		out[key] = count
	}
	return rows.Err()
}

func (s *service) Close() error {
	return s.db.Close()
}

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	var token sql.NullString
	err := row.Scan(&a.ID, &a.AccountID, &a.AccountName,
		&a.Credentials.AccessKeyID, &a.Credentials.SecretAccessKey, &token, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.Credentials.SessionToken = token.String
	return a, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
