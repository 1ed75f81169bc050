// Package cloudwatch probes CloudWatch alarm coverage and log group
// retention.
package cloudwatch

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "CloudWatch"

type service struct {
	cwClient   *cloudwatch.Client
	logsClient *cloudwatchlogs.Client
}

// Service is the CloudWatch probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates a CloudWatch probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		cwClient:   cloudwatch.NewFromConfig(cfg),
		logsClient: cloudwatchlogs.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	alarms, err := s.cwClient.DescribeAlarms(ctx, &cloudwatch.DescribeAlarmsInput{
		MaxRecords: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	if len(alarms.MetricAlarms) == 0 && len(alarms.CompositeAlarms) == 0 {
		findings = append(findings, model.Finding{
			ResourceID:   "cloudwatch-alarms",
			ResourceType: "Alarm",
			Service:      serviceName,
			Severity:     model.SeverityMedium,
			Title:        "No CloudWatch Alarms",
			Description:  "The region has no metric or composite alarms configured.",
			Remediation:  "Create alarms for critical metrics such as root usage and unauthorized API calls.",
		})
	}

	groups, err := s.logsClient.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{})
	if err != nil {
		// Alarm coverage was checked; log retention is best-effort.
		return findings, nil
	}
	for _, group := range groups.LogGroups {
		if group.RetentionInDays != nil {
			continue
		}
		name := aws.ToString(group.LogGroupName)
		findings = append(findings, model.Finding{
			ResourceID:   name,
			ResourceType: "LogGroup",
			ResourceName: name,
			Service:      serviceName,
			Severity:     model.SeverityLow,
			Title:        "Log Group Without Retention",
			Description:  fmt.Sprintf("Log group %s retains events forever, which usually means nobody set a policy.", name),
			Remediation:  "Set an explicit retention period on the log group.",
		})
	}
	return findings, nil
}
