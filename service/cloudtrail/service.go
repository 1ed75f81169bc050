// Package cloudtrail probes CloudTrail coverage and trail health.
package cloudtrail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "CloudTrail"

type service struct {
	client *cloudtrail.Client
}

// Service is the CloudTrail probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates a CloudTrail probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: cloudtrail.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	trails, err := s.client.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{})
	if err != nil {
		return nil, err
	}

	if len(trails.TrailList) == 0 {
		return []model.Finding{{
			ResourceID:   "cloudtrail",
			ResourceType: "Trail",
			Service:      serviceName,
			Severity:     model.SeverityHigh,
			Title:        "No CloudTrail Trails",
			Description:  "No trail records API activity for this region.",
			Remediation:  "Create a multi-region trail with log file validation enabled.",
		}}, nil
	}

	findings := []model.Finding{}
	for _, trail := range trails.TrailList {
		name := aws.ToString(trail.Name)

		status, err := s.client.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{
			Name: trail.TrailARN,
		})
		if err == nil && !aws.ToBool(status.IsLogging) {
			findings = append(findings, model.Finding{
				ResourceID:   aws.ToString(trail.TrailARN),
				ResourceType: "Trail",
				ResourceName: name,
				Service:      serviceName,
				Severity:     model.SeverityMedium,
				Title:        "Trail Not Logging",
				Description:  "The trail exists but is not actively recording events.",
				Remediation:  "Start logging on the trail.",
			})
		}

		if !aws.ToBool(trail.LogFileValidationEnabled) {
			findings = append(findings, model.Finding{
				ResourceID:   aws.ToString(trail.TrailARN),
				ResourceType: "Trail",
				ResourceName: name,
				Service:      serviceName,
				Severity:     model.SeverityLow,
				Title:        "Log File Validation Disabled",
				Description:  "Trail log files are not integrity-protected.",
				Remediation:  "Enable log file validation on the trail.",
			})
		}
	}
	return findings, nil
}
