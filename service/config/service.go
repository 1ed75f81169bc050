// Package config probes AWS Config recorder coverage.
package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "Config"

type service struct {
	client *configservice.Client
}

// Service is the AWS Config probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates an AWS Config probe bound to one account/region
// config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: configservice.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	recorders, err := s.client.DescribeConfigurationRecorders(ctx, &configservice.DescribeConfigurationRecordersInput{})
	if err != nil {
		return nil, err
	}

	if len(recorders.ConfigurationRecorders) == 0 {
		return []model.Finding{{
			ResourceID:   "config-recorder",
			ResourceType: "ConfigurationRecorder",
			Service:      serviceName,
			Severity:     model.SeverityHigh,
			Title:        "AWS Config Not Enabled",
			Description:  "No configuration recorder exists in this region, so resource changes are not tracked.",
			Remediation:  "Create a configuration recorder and delivery channel for the region.",
		}}, nil
	}

	status, err := s.client.DescribeConfigurationRecorderStatus(ctx, &configservice.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	for _, st := range status.ConfigurationRecordersStatus {
		if st.Recording {
			continue
		}
		name := aws.ToString(st.Name)
		findings = append(findings, model.Finding{
			ResourceID:   name,
			ResourceType: "ConfigurationRecorder",
			ResourceName: name,
			Service:      serviceName,
			Severity:     model.SeverityMedium,
			Title:        "Config Recorder Stopped",
			Description:  fmt.Sprintf("Configuration recorder %s exists but is not recording.", name),
			Remediation:  "Start the configuration recorder.",
		})
	}
	return findings, nil
}
