package aws

import (
	"context"

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
)

// The interfaces below list only the SDK operations this package calls.

// CostExplorerAPI is the Cost Explorer subset in use
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
	GetCostForecast(ctx context.Context, in *costexplorer.GetCostForecastInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostForecastOutput, error)
}

// PricingAPI is the Price List subset in use
type PricingAPI interface {
	pricing.DescribeServicesAPIClient
}

// OpenSearchAPI is the OpenSearch subset in use
type OpenSearchAPI interface {
	ListDomainNames(ctx context.Context, in *opensearch.ListDomainNamesInput, optFns ...func(*opensearch.Options)) (*opensearch.ListDomainNamesOutput, error)
	DescribeDomain(ctx context.Context, in *opensearch.DescribeDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.DescribeDomainOutput, error)
	DeleteDomain(ctx context.Context, in *opensearch.DeleteDomainInput, optFns ...func(*opensearch.Options)) (*opensearch.DeleteDomainOutput, error)
}

// ServerlessAPI is the OpenSearch Serverless subset in use
type ServerlessAPI interface {
	ListCollections(ctx context.Context, in *opensearchserverless.ListCollectionsInput, optFns ...func(*opensearchserverless.Options)) (*opensearchserverless.ListCollectionsOutput, error)
	DeleteCollection(ctx context.Context, in *opensearchserverless.DeleteCollectionInput, optFns ...func(*opensearchserverless.Options)) (*opensearchserverless.DeleteCollectionOutput, error)
}

// LambdaAPI is the Lambda subset in use
type LambdaAPI interface {
	lambda.ListFunctionsAPIClient
	DeleteFunction(ctx context.Context, in *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error)
}

// EC2API is the EC2 subset in use
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeRegions(ctx context.Context, in *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// RDSAPI is the RDS subset in use
type RDSAPI interface {
	rds.DescribeDBInstancesAPIClient
	DeleteDBInstance(ctx context.Context, in *rds.DeleteDBInstanceInput, optFns ...func(*rds.Options)) (*rds.DeleteDBInstanceOutput, error)
}

// RedshiftAPI is the Redshift subset in use
type RedshiftAPI interface {
	redshift.DescribeClustersAPIClient
	DeleteCluster(ctx context.Context, in *redshift.DeleteClusterInput, optFns ...func(*redshift.Options)) (*redshift.DeleteClusterOutput, error)
}

// S3API is the S3 subset in use
type S3API interface {
	s3.ListObjectsV2APIClient
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, in *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

// CloudTrailAPI is the CloudTrail subset in use
type CloudTrailAPI interface {
	cloudtrail.LookupEventsAPIClient
}
