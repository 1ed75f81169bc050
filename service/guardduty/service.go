// Package guardduty probes GuardDuty detector coverage for one region.
package guardduty

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	"github.com/aws/aws-sdk-go-v2/service/guardduty/types"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "GuardDuty"

type service struct {
	client *guardduty.Client
}

// Service is the GuardDuty probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates a GuardDuty probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: guardduty.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

// Scan never swallows errors. The scanner uses this probe as its credential
// canary and classifies every failure itself.
func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	detectors, err := s.client.ListDetectors(ctx, &guardduty.ListDetectorsInput{})
	if err != nil {
		return nil, err
	}

	if len(detectors.DetectorIds) == 0 {
		return []model.Finding{notEnabledFinding()}, nil
	}

	findings := []model.Finding{}
	for _, id := range detectors.DetectorIds {
		detector, err := s.client.GetDetector(ctx, &guardduty.GetDetectorInput{
			DetectorId: aws.String(id),
		})
		if err != nil {
			return nil, err
		}
		if detector.Status != types.DetectorStatusEnabled {
			findings = append(findings, disabledFinding(id))
		}
	}
	return findings, nil
}

func notEnabledFinding() model.Finding {
	return model.Finding{
		ResourceID:   "guardduty",
		ResourceType: "Detector",
		Service:      serviceName,
		Severity:     model.SeverityHigh,
		Title:        "GuardDuty Not Enabled",
		Description:  "No GuardDuty detector exists in this region, so threat detection is not running.",
		Remediation:  "Enable GuardDuty to get managed threat detection for the region.",
	}
}

func disabledFinding(detectorID string) model.Finding {
	return model.Finding{
		ResourceID:   detectorID,
		ResourceType: "Detector",
		Service:      serviceName,
		Severity:     model.SeverityHigh,
		Title:        "GuardDuty Detector Disabled",
		Description:  "A GuardDuty detector exists but is suspended, so no findings are produced.",
		Remediation:  "Re-enable the detector so threat monitoring resumes.",
	}
}
