// Package kms probes customer-managed KMS keys for rotation and state.
package kms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "KMS"

type service struct {
	client *kms.Client
}

// Service is the KMS probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates a KMS probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: kms.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	keys, err := s.client.ListKeys(ctx, &kms.ListKeysInput{})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	for _, key := range keys.Keys {
		keyID := aws.ToString(key.KeyId)

		detail, err := s.client.DescribeKey(ctx, &kms.DescribeKeyInput{
			KeyId: key.KeyId,
		})
		if err != nil || detail.KeyMetadata == nil {
			continue
		}
		meta := detail.KeyMetadata
		// AWS-managed keys rotate on Amazon's schedule; only
		// customer-managed keys are actionable.
		if meta.KeyManager != types.KeyManagerTypeCustomer {
			continue
		}

		if meta.KeyState == types.KeyStateDisabled {
			findings = append(findings, keyDisabledFinding(keyID))
			continue
		}
		if meta.KeyState != types.KeyStateEnabled || meta.KeySpec != types.KeySpecSymmetricDefault {
			continue
		}

		rotation, err := s.client.GetKeyRotationStatus(ctx, &kms.GetKeyRotationStatusInput{
			KeyId: key.KeyId,
		})
		if err != nil {
			continue
		}
		if rotationDisabled(rotation) {
			findings = append(findings, rotationDisabledFinding(keyID))
		}
	}
	return findings, nil
}

func rotationDisabled(status *kms.GetKeyRotationStatusOutput) bool {
	return !status.KeyRotationEnabled
}

func rotationDisabledFinding(keyID string) model.Finding {
	return model.Finding{
		ResourceID:   keyID,
		ResourceType: "KMSKey",
		Service:      serviceName,
		Severity:     model.SeverityMedium,
		Title:        "Key Rotation Disabled",
		Description:  "Customer-managed key does not rotate automatically.",
		Remediation:  "Enable annual automatic rotation for the key.",
	}
}

func keyDisabledFinding(keyID string) model.Finding {
	return model.Finding{
		ResourceID:   keyID,
		ResourceType: "KMSKey",
		Service:      serviceName,
		Severity:     model.SeverityLow,
		Title:        "Key Disabled",
		Description:  "Customer-managed key is disabled; dependent ciphertexts cannot be decrypted.",
		Remediation:  "Re-enable the key or schedule deletion if it is no longer needed.",
	}
}
