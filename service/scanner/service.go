// Package scanner orchestrates security scans: it resolves an account's
// enabled regions, verifies credentials, fans probes out per region and
// persists the merged findings in one write.
package scanner

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/saravanakr/cloudposture/model"
	"github.com/saravanakr/cloudposture/service/awsconfig"
	"github.com/saravanakr/cloudposture/service/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds one probe's sweep of one region.
const DefaultProbeTimeout = 45 * time.Second

type service struct {
	store        storage.Service
	cfgService   awsconfig.Service
	probes       []ProbeFactory
	canary       ProbeFactory
	probeTimeout time.Duration
	log          *zap.SugaredLogger
}

// NewService builds a scan orchestrator. A probeTimeout of zero or less
// falls back to DefaultProbeTimeout; a nil logger is replaced with a
// no-op one.
func NewService(store storage.Service, cfgService awsconfig.Service, probes []ProbeFactory, canary ProbeFactory, probeTimeout time.Duration, log *zap.SugaredLogger) Service {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &service{
		store:        store,
		cfgService:   cfgService,
		probes:       probes,
		canary:       canary,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

func (s *service) ScanAccount(ctx context.Context, accountID int64) (AccountScanResult, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return AccountScanResult{AccountID: accountID}, err
	}

	result := AccountScanResult{
		AccountID: account.ID,
		Account:   account.AccountID,
		Findings:  []storage.Finding{},
	}

	regions, err := s.store.GetEnabledRegions(ctx, account.ID)
	if err != nil {
		return result, err
	}

	for _, region := range regions {
		cfg, err := s.cfgService.GetAWSCfg(ctx, account.Credentials, region.Region)
		if err != nil {
			return result, err
		}

		if err := s.canaryCheck(ctx, cfg, account.AccountID, region.Region); err != nil {
			return result, err
		}

		found := s.fanOut(ctx, cfg, account.AccountID, region.Region)
		for _, f := range found {
			result.Findings = append(result.Findings, storage.Finding{
				AccountID:    account.ID,
				Region:       region.Region,
				ResourceID:   f.ResourceID,
				ResourceType: f.ResourceType,
				ResourceName: f.ResourceName,
				Service:      f.Service,
				Severity:     f.Severity,
				Title:        f.Title,
				Description:  f.Description,
				Remediation:  f.Remediation,
			})
		}
	}

	if err := s.store.StoreFindings(ctx, account.ID, result.Findings); err != nil {
		return result, err
	}

	s.log.Infow("account scan complete",
		"account", account.AccountID,
		"regions", len(regions),
		"findings", len(result.Findings))
	return result, nil
}

// canaryCheck runs the canary probe once before the fan-out. A credential
// failure aborts the whole account; any other failure is logged and the
// region is scanned anyway, since one service being down should not mask
// the other nine.
func (s *service) canaryCheck(ctx context.Context, cfg aws.Config, account, region string) error {
	cctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	probe := s.canary(cfg)
	if _, err := probe.Scan(cctx); err != nil {
		if isCredentialError(err) {
			return &CredentialError{Account: account, Region: region, Err: err}
		}
		s.log.Warnw("canary probe failed",
			"account", account,
			"region", region,
			"probe", probe.Name(),
			"error", err)
	}
	return nil
}

// fanOut runs every probe against one region in parallel. A failing
// probe contributes an empty slice; its siblings keep running.
func (s *service) fanOut(ctx context.Context, cfg aws.Config, account, region string) []model.Finding {
	results := make([][]model.Finding, len(s.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, factory := range s.probes {
		i, factory := i, factory
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, s.probeTimeout)
			defer cancel()

			probe := factory(cfg)
			findings, err := probe.Scan(pctx)
			if err != nil {
				s.log.Warnw("probe failed",
					"account", account,
					"region", region,
					"probe", probe.Name(),
					"error", err)
				return nil
			}
			results[i] = findings
			return nil
		})
	}
	g.Wait()

	merged := []model.Finding{}
	for _, findings := range results {
		merged = append(merged, findings...)
	}
	return merged
}

func (s *service) ScanAllAccounts(ctx context.Context) ([]AccountScanResult, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]AccountScanResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := s.ScanAccount(ctx, account.ID)
		if err != nil {
			s.log.Errorw("account scan failed",
				"account", account.AccountID,
				"error", err)
			result.Err = err
		}
		results = append(results, result)
	}
	return results, nil
}
