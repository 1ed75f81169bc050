// Package ec2security probes security groups and the account EBS
// encryption default.
package ec2security

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "EC2"

// Administrative ports that should never face the open internet.
var adminPorts = map[int32]string{
	22:   "SSH",
	3389: "RDP",
}

type service struct {
	client *ec2.Client
}

// Service is the EC2 probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates an EC2 probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: ec2.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	groups, err := s.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	for _, group := range groups.SecurityGroups {
		for _, perm := range group.IpPermissions {
			port, ok := exposesAdminPort(perm)
			if !ok {
				continue
			}
			groupID := aws.ToString(group.GroupId)
			findings = append(findings, model.Finding{
				ResourceID:   groupID,
				ResourceType: "SecurityGroup",
				ResourceName: aws.ToString(group.GroupName),
				Service:      serviceName,
				Severity:     model.SeverityHigh,
				Title:        fmt.Sprintf("%s Open To The Internet", adminPorts[port]),
				Description:  fmt.Sprintf("Security group %s allows inbound %s (port %d) from 0.0.0.0/0.", groupID, adminPorts[port], port),
				Remediation:  "Restrict the rule to known CIDR ranges or move access behind SSM Session Manager.",
			})
			break
		}
	}

	ebs, err := s.client.GetEbsEncryptionByDefault(ctx, &ec2.GetEbsEncryptionByDefaultInput{})
	if err != nil {
		// Security group exposure was checked; the EBS default is
		// best-effort.
		return findings, nil
	}
	if !aws.ToBool(ebs.EbsEncryptionByDefault) {
		findings = append(findings, model.Finding{
			ResourceID:   "ebs-encryption-by-default",
			ResourceType: "EBSDefault",
			Service:      serviceName,
			Severity:     model.SeverityMedium,
			Title:        "EBS Encryption By Default Disabled",
			Description:  "New EBS volumes in this region are created unencrypted.",
			Remediation:  "Enable EBS encryption by default for the region.",
		})
	}
	return findings, nil
}

// exposesAdminPort reports whether the rule admits 0.0.0.0/0 or ::/0 on
// an administrative port, and which port.
func exposesAdminPort(perm types.IpPermission) (int32, bool) {
	open := false
	for _, rng := range perm.IpRanges {
		if aws.ToString(rng.CidrIp) == "0.0.0.0/0" {
			open = true
		}
	}
	for _, rng := range perm.Ipv6Ranges {
		if aws.ToString(rng.CidrIpv6) == "::/0" {
			open = true
		}
	}
	if !open {
		return 0, false
	}

	from := aws.ToInt32(perm.FromPort)
	to := aws.ToInt32(perm.ToPort)
	// -1 (all traffic) and a nil port pair both cover every port.
	if from == -1 || (perm.FromPort == nil && perm.ToPort == nil) {
		return 22, true
	}
	for port := range adminPorts {
		if from <= port && port <= to {
			return port, true
		}
	}
	return 0, false
}
