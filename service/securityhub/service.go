// Package securityhub probes Security Hub enablement and standards
// coverage.
package securityhub

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/smithy-go"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "SecurityHub"

type service struct {
	client *securityhub.Client
}

// Service is the Security Hub probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates a Security Hub probe bound to one account/region
// config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: securityhub.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	_, err := s.client.DescribeHub(ctx, &securityhub.DescribeHubInput{})
	if err != nil {
		if isNotEnabled(err) {
			return []model.Finding{{
				ResourceID:   "securityhub",
				ResourceType: "Hub",
				Service:      serviceName,
				Severity:     model.SeverityHigh,
				Title:        "Security Hub Not Enabled",
				Description:  "Security Hub is not enabled in this region, so findings are not aggregated.",
				Remediation:  "Enable Security Hub and subscribe to at least one standard.",
			}}, nil
		}
		return nil, err
	}

	standards, err := s.client.GetEnabledStandards(ctx, &securityhub.GetEnabledStandardsInput{})
	if err != nil {
		return nil, err
	}
	if len(standards.StandardsSubscriptions) == 0 {
		return []model.Finding{{
			ResourceID:   "securityhub",
			ResourceType: "Hub",
			Service:      serviceName,
			Severity:     model.SeverityMedium,
			Title:        "No Standards Subscribed",
			Description:  "Security Hub is enabled but no security standard is subscribed.",
			Remediation:  "Subscribe to AWS Foundational Security Best Practices or CIS.",
		}}, nil
	}
	return []model.Finding{}, nil
}

// DescribeHub fails with InvalidAccessException when the hub was never
// enabled and ResourceNotFoundException after it was disabled.
func isNotEnabled(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "InvalidAccessException" || code == "ResourceNotFoundException"
}
