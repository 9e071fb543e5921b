package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/opensearchserverless"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/samber/lo"

	"aws-cost/core/cancellation"
	"aws-cost/core/types"
)

// listFunc enumerates candidates in one region
type listFunc func(ctx context.Context, region string) ([]types.ResourceRecord, error)

// deleteFunc removes one resource and returns the action taken
type deleteFunc func(ctx context.Context, region, id string) (string, error)

// handler implements cancellation.Handler from a list and a delete step
type handler struct {
	kind  cancellation.ResourceKind
	noun  string
	list  listFunc
	erase deleteFunc
}

func (h *handler) Kind() cancellation.ResourceKind { return h.kind }

// Cancel lists candidates when no resource is named, otherwise deletes it
func (h *handler) Cancel(ctx context.Context, req cancellation.Request) (cancellation.Outcome, error) {
	if req.ResourceID == "" {
		records, err := h.list(ctx, req.Region)
		if err != nil {
			return cancellation.Outcome{}, err
		}
		return cancellation.Outcome{
			Action:    cancellation.ActionListOnly,
			Message:   fmt.Sprintf("Found %d %s(s) in %s; pass a resource id to delete one", len(records), h.noun, req.Region),
			Resources: records,
			Details:   map[string]any{"count": len(records)},
		}, nil
	}

	action, err := h.erase(ctx, req.Region, req.ResourceID)
	if err != nil {
		return cancellation.Outcome{}, err
	}
	return cancellation.Outcome{
		Action:  action,
		Message: fmt.Sprintf("%s %s %s in %s", h.noun, req.ResourceID, action, req.Region),
		Details: map[string]any{"resource_id": req.ResourceID},
	}, nil
}

// Handlers returns a cancellation handler per supported resource kind
func Handlers(c *Clients) []cancellation.Handler {
	return []cancellation.Handler{
		OpenSearchDomainHandler(c.OpenSearch),
		ServerlessCollectionHandler(c.Serverless),
		RedshiftClusterHandler(c.Redshift),
		LambdaFunctionHandler(c.Lambda),
		EC2InstanceHandler(c.EC2),
		RDSInstanceHandler(c.RDS),
		S3BucketHandler(c.S3),
	}
}

// OpenSearchDomainHandler deletes OpenSearch domains
func OpenSearchDomainHandler(client func(region string) OpenSearchAPI) cancellation.Handler {
	return &handler{
		kind: cancellation.KindOpenSearchDomain,
		noun: "OpenSearch domain",
		list: NewOpenSearchDomains(client).List,
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).DeleteDomain(ctx, &opensearch.DeleteDomainInput{DomainName: awssdk.String(id)})
			if err != nil {
				return "", Classify("DeleteDomain", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

// ServerlessCollectionHandler deletes OpenSearch Serverless collections
func ServerlessCollectionHandler(client func(region string) ServerlessAPI) cancellation.Handler {
	return &handler{
		kind: cancellation.KindOpenSearchCollection,
		noun: "OpenSearch Serverless collection",
		list: NewServerlessCollections(client).List,
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).DeleteCollection(ctx, &opensearchserverless.DeleteCollectionInput{Id: awssdk.String(id)})
			if err != nil {
				return "", Classify("DeleteCollection", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

// LambdaFunctionHandler deletes Lambda functions
func LambdaFunctionHandler(client func(region string) LambdaAPI) cancellation.Handler {
	return &handler{
		kind: cancellation.KindLambdaFunction,
		noun: "Lambda function",
		list: NewLambdaFunctions(client).List,
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: awssdk.String(id)})
			if err != nil {
				return "", Classify("DeleteFunction", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

// EC2InstanceHandler terminates EC2 instances
func EC2InstanceHandler(client func(region string) EC2API) cancellation.Handler {
	return &handler{
		kind: cancellation.KindEC2Instance,
		noun: "EC2 instance",
		list: NewEC2Instances(client).List,
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}})
			if err != nil {
				return "", Classify("TerminateInstances", err)
			}
			return cancellation.ActionTerminated, nil
		},
	}
}

// RedshiftClusterHandler deletes Redshift clusters without a final snapshot
func RedshiftClusterHandler(client func(region string) RedshiftAPI) cancellation.Handler {
	return &handler{
		kind: cancellation.KindRedshiftCluster,
		noun: "Redshift cluster",
		list: func(ctx context.Context, region string) ([]types.ResourceRecord, error) {
			var records []types.ResourceRecord
			p := redshift.NewDescribeClustersPaginator(client(region), &redshift.DescribeClustersInput{})
			for p.HasMorePages() {
				page, err := p.NextPage(ctx)
				if err != nil {
					return nil, Classify("DescribeClusters", err)
				}
				for _, cl := range page.Clusters {
					id := awssdk.ToString(cl.ClusterIdentifier)
					records = append(records, types.ResourceRecord{
						ID:        id,
						Name:      id,
						Region:    region,
						Timestamp: awssdk.ToTime(cl.ClusterCreateTime),
						Details: map[string]string{
							"node_type": awssdk.ToString(cl.NodeType),
							"status":    awssdk.ToString(cl.ClusterStatus),
						},
					})
				}
			}
			return records, nil
		},
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).DeleteCluster(ctx, &redshift.DeleteClusterInput{
				ClusterIdentifier:        awssdk.String(id),
				SkipFinalClusterSnapshot: awssdk.Bool(true),
			})
			if err != nil {
				return "", Classify("DeleteCluster", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

// RDSInstanceHandler deletes RDS instances without a final snapshot
func RDSInstanceHandler(client func(region string) RDSAPI) cancellation.Handler {
	return &handler{
		kind: cancellation.KindRDSInstance,
		noun: "RDS instance",
		list: func(ctx context.Context, region string) ([]types.ResourceRecord, error) {
			var records []types.ResourceRecord
			p := rds.NewDescribeDBInstancesPaginator(client(region), &rds.DescribeDBInstancesInput{})
			for p.HasMorePages() {
				page, err := p.NextPage(ctx)
				if err != nil {
					return nil, Classify("DescribeDBInstances", err)
				}
				for _, db := range page.DBInstances {
					id := awssdk.ToString(db.DBInstanceIdentifier)
					records = append(records, types.ResourceRecord{
						ID:        id,
						Name:      id,
						Region:    region,
						Timestamp: awssdk.ToTime(db.InstanceCreateTime),
						Details: map[string]string{
							"engine": awssdk.ToString(db.Engine),
							"class":  awssdk.ToString(db.DBInstanceClass),
							"status": awssdk.ToString(db.DBInstanceStatus),
						},
					})
				}
			}
			return records, nil
		},
		erase: func(ctx context.Context, region, id string) (string, error) {
			_, err := client(region).DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
				DBInstanceIdentifier:   awssdk.String(id),
				SkipFinalSnapshot:      awssdk.Bool(true),
				DeleteAutomatedBackups: awssdk.Bool(true),
			})
			if err != nil {
				return "", Classify("DeleteDBInstance", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

// S3BucketHandler empties and deletes S3 buckets. A bucket that cannot be
// emptied is reported as a failure and left in place.
func S3BucketHandler(client func(region string) S3API) cancellation.Handler {
	return &handler{
		kind: cancellation.KindS3Bucket,
		noun: "S3 bucket",
		list: func(ctx context.Context, region string) ([]types.ResourceRecord, error) {
			out, err := client(region).ListBuckets(ctx, &s3.ListBucketsInput{})
			if err != nil {
				return nil, Classify("ListBuckets", err)
			}
			return lo.Map(out.Buckets, func(b s3types.Bucket, _ int) types.ResourceRecord {
				name := awssdk.ToString(b.Name)
				return types.ResourceRecord{
					ID:        name,
					Name:      name,
					Region:    region,
					Timestamp: awssdk.ToTime(b.CreationDate),
				}
			}), nil
		},
		erase: func(ctx context.Context, region, id string) (string, error) {
			api := client(region)
			if err := emptyBucket(ctx, api, id); err != nil {
				return "", err
			}
			if _, err := api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: awssdk.String(id)}); err != nil {
				return "", Classify("DeleteBucket", err)
			}
			return cancellation.ActionDeleted, nil
		},
	}
}

func emptyBucket(ctx context.Context, api S3API, bucket string) error {
	p := s3.NewListObjectsV2Paginator(api, &s3.ListObjectsV2Input{Bucket: awssdk.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return Classify("ListObjectsV2", err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		ids := lo.Map(page.Contents, func(o s3types.Object, _ int) s3types.ObjectIdentifier {
			return s3types.ObjectIdentifier{Key: o.Key}
		})
		out, err := api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: awssdk.String(bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: awssdk.Bool(true)},
		})
		if err != nil {
			return Classify("DeleteObjects", err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return Classify("DeleteObjects", fmt.Errorf("%s: %s (%d objects failed)",
				awssdk.ToString(e.Code), awssdk.ToString(e.Message), len(out.Errors)))
		}
	}
	return nil
}
