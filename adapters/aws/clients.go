// Package aws implements the cost, enumeration, audit and cancellation ports
// on top of the AWS SDK for Go v2.
//
// Every SDK call goes through a narrow interface so tests can substitute
// fakes, and every error leaves this package classified by Classify.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/opensearchserverless"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"aws-cost/core/usagetype"
	"aws-cost/internal/config"
	apperrors "aws-cost/internal/errors"
)

// globalRegion hosts the account-wide billing and pricing endpoints
const globalRegion = "us-east-1"

// Clients builds regional SDK clients from one shared configuration
type Clients struct {
	cfg awssdk.Config
}

// NewClients loads credentials through the default chain, honoring profile
func NewClients(ctx context.Context, cfg config.AWSConfig) (*Clients, error) {
	region := cfg.DefaultRegion
	if region == "" {
		region = usagetype.DefaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Config("load AWS configuration", err)
	}
	return &Clients{cfg: awsCfg}, nil
}

// NewClientsFromConfig wraps an already loaded SDK configuration
func NewClientsFromConfig(cfg awssdk.Config) *Clients {
	return &Clients{cfg: cfg}
}

// Region returns the configured default region
func (c *Clients) Region() string {
	return c.cfg.Region
}

// CostExplorer returns the Cost Explorer client
func (c *Clients) CostExplorer() *costexplorer.Client {
	return costexplorer.NewFromConfig(c.cfg, func(o *costexplorer.Options) { o.Region = globalRegion })
}

// Pricing returns the Price List client
func (c *Clients) Pricing() *pricing.Client {
	return pricing.NewFromConfig(c.cfg, func(o *pricing.Options) { o.Region = globalRegion })
}

// OpenSearch returns an OpenSearch client for region
func (c *Clients) OpenSearch(region string) OpenSearchAPI {
	return opensearch.NewFromConfig(c.cfg, func(o *opensearch.Options) { o.Region = region })
}

// Serverless returns an OpenSearch Serverless client for region
func (c *Clients) Serverless(region string) ServerlessAPI {
	return opensearchserverless.NewFromConfig(c.cfg, func(o *opensearchserverless.Options) { o.Region = region })
}

// Lambda returns a Lambda client for region
func (c *Clients) Lambda(region string) LambdaAPI {
	return lambda.NewFromConfig(c.cfg, func(o *lambda.Options) { o.Region = region })
}

// EC2 returns an EC2 client for region
func (c *Clients) EC2(region string) EC2API {
	return ec2.NewFromConfig(c.cfg, func(o *ec2.Options) { o.Region = region })
}

// RDS returns an RDS client for region
func (c *Clients) RDS(region string) RDSAPI {
	return rds.NewFromConfig(c.cfg, func(o *rds.Options) { o.Region = region })
}

// Redshift returns a Redshift client for region
func (c *Clients) Redshift(region string) RedshiftAPI {
	return redshift.NewFromConfig(c.cfg, func(o *redshift.Options) { o.Region = region })
}

// S3 returns an S3 client for region
func (c *Clients) S3(region string) S3API {
	return s3.NewFromConfig(c.cfg, func(o *s3.Options) { o.Region = region })
}

// CloudTrail returns a CloudTrail client for region
func (c *Clients) CloudTrail(region string) CloudTrailAPI {
	return cloudtrail.NewFromConfig(c.cfg, func(o *cloudtrail.Options) { o.Region = region })
}
