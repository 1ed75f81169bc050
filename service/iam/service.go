// Package iam probes IAM user hygiene: MFA coverage, access key age and
// the account password policy.
package iam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/smithy-go"
	"github.com/saravanakr/cloudposture/model"
)

const (
	serviceName = "IAM"

	// Access keys older than this are flagged as unrotated.
	maxKeyAgeDays = 90
)

type service struct {
	client *iam.Client
}

// Service is the IAM probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates an IAM probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: iam.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	findings := []model.Finding{}

	users, err := s.client.ListUsers(ctx, &iam.ListUsersInput{})
	if err != nil {
		return nil, err
	}

	for _, user := range users.Users {
		userName := aws.ToString(user.UserName)

		mfa, err := s.client.ListMFADevices(ctx, &iam.ListMFADevicesInput{
			UserName: user.UserName,
		})
		if err == nil && len(mfa.MFADevices) == 0 {
			findings = append(findings, model.Finding{
				ResourceID:   userName,
				ResourceType: "User",
				ResourceName: userName,
				Service:      serviceName,
				Severity:     model.SeverityHigh,
				Title:        "User Without MFA",
				Description:  "IAM user has no MFA device registered.",
				Remediation:  "Require a virtual or hardware MFA device for this user.",
			})
		}

		keys, err := s.client.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
			UserName: user.UserName,
		})
		if err != nil {
			continue
		}
		for _, key := range keys.AccessKeyMetadata {
			if key.CreateDate == nil {
				continue
			}
			age := keyAgeDays(*key.CreateDate, time.Now())
			if age > maxKeyAgeDays {
				findings = append(findings, model.Finding{
					ResourceID:   aws.ToString(key.AccessKeyId),
					ResourceType: "AccessKey",
					ResourceName: userName,
					Service:      serviceName,
					Severity:     model.SeverityMedium,
					Title:        "Access Key Not Rotated",
					Description:  fmt.Sprintf("Access key for user %s is %d days old.", userName, age),
					Remediation:  "Rotate the access key and delete the old one.",
				})
			}
		}
	}

	if f, ok := s.passwordPolicyFinding(ctx); ok {
		findings = append(findings, f)
	}

	return findings, nil
}

func (s *service) passwordPolicyFinding(ctx context.Context) (model.Finding, bool) {
	_, err := s.client.GetAccountPasswordPolicy(ctx, &iam.GetAccountPasswordPolicyInput{})
	if err == nil {
		return model.Finding{}, false
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "NoSuchEntity" {
		return model.Finding{}, false
	}
	return model.Finding{
		ResourceID:   "password-policy",
		ResourceType: "PasswordPolicy",
		Service:      serviceName,
		Severity:     model.SeverityMedium,
		Title:        "No Account Password Policy",
		Description:  "The account has no IAM password policy configured.",
		Remediation:  "Create a password policy enforcing length, complexity and expiry.",
	}, true
}

func keyAgeDays(created, now time.Time) int {
	return int(now.Sub(created).Hours() / 24)
}
