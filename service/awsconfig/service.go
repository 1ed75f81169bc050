// Package awsconfig provides a service for loading AWS configuration
// scoped to one account/region pair.
package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/saravanakr/cloudposture/model"
)

// Service builds SDK configurations from stored account credentials.
type Service interface {
	GetAWSCfg(ctx context.Context, creds model.Credentials, region string) (aws.Config, error)
}

type service struct{}

// NewService creates a new AWS configuration service.
func NewService() Service {
	return &service{}
}

func (s *service) GetAWSCfg(ctx context.Context, creds model.Credentials, region string) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, fmt.Errorf("region is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return cfg, nil
}
