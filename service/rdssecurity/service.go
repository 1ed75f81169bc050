// Package rdssecurity probes RDS instances for exposure, encryption and
// backup coverage.
package rdssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "RDS"

type service struct {
	client *rds.Client
}

// Service is the RDS probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates an RDS probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: rds.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	instances, err := s.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	for _, db := range instances.DBInstances {
		id := aws.ToString(db.DBInstanceIdentifier)

		if aws.ToBool(db.PubliclyAccessible) {
			findings = append(findings, model.Finding{
				ResourceID:   id,
				ResourceType: "DBInstance",
				ResourceName: id,
				Service:      serviceName,
				Severity:     model.SeverityHigh,
				Title:        "Database Publicly Accessible",
				Description:  fmt.Sprintf("RDS instance %s is reachable from the public internet.", id),
				Remediation:  "Disable public accessibility and place the instance in private subnets.",
			})
		}

		if !aws.ToBool(db.StorageEncrypted) {
			findings = append(findings, model.Finding{
				ResourceID:   id,
				ResourceType: "DBInstance",
				ResourceName: id,
				Service:      serviceName,
				Severity:     model.SeverityMedium,
				Title:        "Database Storage Unencrypted",
				Description:  fmt.Sprintf("RDS instance %s stores data on unencrypted volumes.", id),
				Remediation:  "Restore from an encrypted snapshot to enable storage encryption.",
			})
		}

		if aws.ToInt32(db.BackupRetentionPeriod) == 0 {
			findings = append(findings, model.Finding{
				ResourceID:   id,
				ResourceType: "DBInstance",
				ResourceName: id,
				Service:      serviceName,
				Severity:     model.SeverityLow,
				Title:        "Automated Backups Disabled",
				Description:  fmt.Sprintf("RDS instance %s has a backup retention period of zero days.", id),
				Remediation:  "Set the backup retention period to at least seven days.",
			})
		}
	}
	return findings, nil
}
