package scanner

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/saravanakr/cloudposture/service/cloudtrail"
	"github.com/saravanakr/cloudposture/service/cloudwatch"
	awsconfigprobe "github.com/saravanakr/cloudposture/service/config"
	"github.com/saravanakr/cloudposture/service/ec2security"
	"github.com/saravanakr/cloudposture/service/guardduty"
	"github.com/saravanakr/cloudposture/service/iam"
	"github.com/saravanakr/cloudposture/service/kms"
	"github.com/saravanakr/cloudposture/service/rdssecurity"
	"github.com/saravanakr/cloudposture/service/s3security"
	"github.com/saravanakr/cloudposture/service/securityhub"
)

// DefaultProbes returns the full probe set run against every region.
// GuardDuty appears here as a regular probe even though it also serves
// as the canary; the canary run's findings are discarded.
func DefaultProbes() []ProbeFactory {
	return []ProbeFactory{
		func(cfg aws.Config) Probe { return guardduty.NewService(cfg) },
		func(cfg aws.Config) Probe { return iam.NewService(cfg) },
		func(cfg aws.Config) Probe { return cloudtrail.NewService(cfg) },
		func(cfg aws.Config) Probe { return cloudwatch.NewService(cfg) },
		func(cfg aws.Config) Probe { return kms.NewService(cfg) },
		func(cfg aws.Config) Probe { return securityhub.NewService(cfg) },
		func(cfg aws.Config) Probe { return ec2security.NewService(cfg) },
		func(cfg aws.Config) Probe { return s3security.NewService(cfg) },
		func(cfg aws.Config) Probe { return rdssecurity.NewService(cfg) },
		func(cfg aws.Config) Probe { return awsconfigprobe.NewService(cfg) },
	}
}

// CanaryProbe returns the probe run first against each region to verify
// the account's credentials before the fan-out.
func CanaryProbe() ProbeFactory {
	return func(cfg aws.Config) Probe { return guardduty.NewService(cfg) }
}
