// Package s3security probes bucket public access blocks and default
// encryption.
package s3security

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/saravanakr/cloudposture/model"
)

const serviceName = "S3"

type service struct {
	client *s3.Client
}

// Service is the S3 probe.
type Service interface {
	Name() string
	Scan(ctx context.Context) ([]model.Finding, error)
}

// NewService creates an S3 probe bound to one account/region config.
func NewService(cfg aws.Config) Service {
	return &service{
		client: s3.NewFromConfig(cfg),
	}
}

func (s *service) Name() string { return serviceName }

func (s *service) Scan(ctx context.Context) ([]model.Finding, error) {
	buckets, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	findings := []model.Finding{}
	for _, bucket := range buckets.Buckets {
		name := aws.ToString(bucket.Name)

		if f, ok := s.publicAccessFinding(ctx, name); ok {
			findings = append(findings, f)
		}
		if f, ok := s.encryptionFinding(ctx, name); ok {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func (s *service) publicAccessFinding(ctx context.Context, name string) (model.Finding, bool) {
	block, err := s.client.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{
		Bucket: aws.String(name),
	})
	missing := false
	switch {
	case err != nil:
		if !isErrorCode(err, "NoSuchPublicAccessBlockConfiguration") {
			// Per-bucket errors (wrong region, access denied) do not
			// abort the sweep.
			return model.Finding{}, false
		}
		missing = true
	case block.PublicAccessBlockConfiguration == nil:
		missing = true
	default:
		c := block.PublicAccessBlockConfiguration
		missing = !aws.ToBool(c.BlockPublicAcls) || !aws.ToBool(c.BlockPublicPolicy) ||
			!aws.ToBool(c.IgnorePublicAcls) || !aws.ToBool(c.RestrictPublicBuckets)
	}
	if !missing {
		return model.Finding{}, false
	}
	return model.Finding{
		ResourceID:   name,
		ResourceType: "Bucket",
		ResourceName: name,
		Service:      serviceName,
		Severity:     model.SeverityHigh,
		Title:        "Bucket Without Full Public Access Block",
		Description:  fmt.Sprintf("Bucket %s does not block all forms of public access.", name),
		Remediation:  "Enable all four public access block settings on the bucket.",
	}, true
}

func (s *service) encryptionFinding(ctx context.Context, name string) (model.Finding, bool) {
	_, err := s.client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{
		Bucket: aws.String(name),
	})
	if err == nil || !isErrorCode(err, "ServerSideEncryptionConfigurationNotFoundError") {
		return model.Finding{}, false
	}
	return model.Finding{
		ResourceID:   name,
		ResourceType: "Bucket",
		ResourceName: name,
		Service:      serviceName,
		Severity:     model.SeverityMedium,
		Title:        "Bucket Without Default Encryption",
		Description:  fmt.Sprintf("Bucket %s has no default server-side encryption configuration.", name),
		Remediation:  "Configure SSE-S3 or SSE-KMS default encryption on the bucket.",
	}, true
}

func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
