package aws

import (
	"context"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/aws/aws-sdk-go-v2/service/opensearchserverless"

	"aws-cost/core/scanner"
	"aws-cost/core/types"
)

// lambdaTimeLayout is the LastModified format returned by Lambda
const lambdaTimeLayout = "2006-01-02T15:04:05.000-0700"

// OpenSearchDomains lists OpenSearch domains
type OpenSearchDomains struct {
	client func(region string) OpenSearchAPI
}

// NewOpenSearchDomains creates the domain lister
func NewOpenSearchDomains(client func(region string) OpenSearchAPI) *OpenSearchDomains {
	return &OpenSearchDomains{client: client}
}

// Type implements scanner.Lister
func (l *OpenSearchDomains) Type() types.ResourceType { return types.ResourceOpenSearchDomain }

// List implements scanner.Lister. Domains that cannot be described are still
// returned, without details.
func (l *OpenSearchDomains) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	api := l.client(region)
	out, err := api.ListDomainNames(ctx, &opensearch.ListDomainNamesInput{})
	if err != nil {
		return nil, Classify("ListDomainNames", err)
	}

	records := make([]types.ResourceRecord, 0, len(out.DomainNames))
	for _, d := range out.DomainNames {
		name := awssdk.ToString(d.DomainName)
		if name == "" {
			continue
		}
		rec := types.ResourceRecord{ID: name, Name: name, Details: map[string]string{}}
		if d.EngineType != "" {
			rec.Details["engine_type"] = string(d.EngineType)
		}

		desc, err := api.DescribeDomain(ctx, &opensearch.DescribeDomainInput{DomainName: awssdk.String(name)})
		if err == nil && desc.DomainStatus != nil {
			st := desc.DomainStatus
			if st.ClusterConfig != nil {
				rec.Details["instance_type"] = string(st.ClusterConfig.InstanceType)
				rec.Details["instance_count"] = strconv.Itoa(int(awssdk.ToInt32(st.ClusterConfig.InstanceCount)))
			}
			if st.EBSOptions != nil && st.EBSOptions.VolumeSize != nil {
				rec.Details["storage_gb"] = strconv.Itoa(int(*st.EBSOptions.VolumeSize))
			}
			if st.EngineVersion != nil {
				rec.Details["engine_version"] = *st.EngineVersion
			}
			if awssdk.ToBool(st.Deleted) {
				rec.Status = types.ResourceDeleted
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ServerlessCollections lists OpenSearch Serverless collections
type ServerlessCollections struct {
	client func(region string) ServerlessAPI
}

// NewServerlessCollections creates the collection lister
func NewServerlessCollections(client func(region string) ServerlessAPI) *ServerlessCollections {
	return &ServerlessCollections{client: client}
}

// Type implements scanner.Lister
func (l *ServerlessCollections) Type() types.ResourceType {
	return types.ResourceOpenSearchCollection
}

// List implements scanner.Lister
func (l *ServerlessCollections) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	api := l.client(region)
	in := &opensearchserverless.ListCollectionsInput{}

	var records []types.ResourceRecord
	for {
		out, err := api.ListCollections(ctx, in)
		if err != nil {
			return nil, Classify("ListCollections", err)
		}
		for _, c := range out.CollectionSummaries {
			records = append(records, types.ResourceRecord{
				ID:   awssdk.ToString(c.Id),
				Name: awssdk.ToString(c.Name),
				Details: map[string]string{
					"arn":    awssdk.ToString(c.Arn),
					"status": string(c.Status),
				},
			})
		}
		if out.NextToken == nil {
			break
		}
		in.NextToken = out.NextToken
	}
	return records, nil
}

// LambdaFunctions lists Lambda functions
type LambdaFunctions struct {
	client func(region string) LambdaAPI
}

// NewLambdaFunctions creates the function lister
func NewLambdaFunctions(client func(region string) LambdaAPI) *LambdaFunctions {
	return &LambdaFunctions{client: client}
}

// Type implements scanner.Lister
func (l *LambdaFunctions) Type() types.ResourceType { return types.ResourceLambdaFunction }

// List implements scanner.Lister
func (l *LambdaFunctions) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	var records []types.ResourceRecord
	p := lambda.NewListFunctionsPaginator(l.client(region), &lambda.ListFunctionsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, Classify("ListFunctions", err)
		}
		for _, fn := range page.Functions {
			name := awssdk.ToString(fn.FunctionName)
			rec := types.ResourceRecord{
				ID:   name,
				Name: name,
				Details: map[string]string{
					"runtime":   string(fn.Runtime),
					"memory_mb": strconv.Itoa(int(awssdk.ToInt32(fn.MemorySize))),
				},
			}
			if ts, err := time.Parse(lambdaTimeLayout, awssdk.ToString(fn.LastModified)); err == nil {
				rec.Timestamp = ts
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// EC2Instances lists EC2 instances that are not terminated
type EC2Instances struct {
	client func(region string) EC2API
}

// NewEC2Instances creates the instance lister
func NewEC2Instances(client func(region string) EC2API) *EC2Instances {
	return &EC2Instances{client: client}
}

// Type implements scanner.Lister
func (l *EC2Instances) Type() types.ResourceType { return types.ResourceEC2Instance }

// List implements scanner.Lister
func (l *EC2Instances) List(ctx context.Context, region string) ([]types.ResourceRecord, error) {
	var records []types.ResourceRecord
	p := ec2.NewDescribeInstancesPaginator(l.client(region), &ec2.DescribeInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, Classify("DescribeInstances", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				state := ec2types.InstanceStateName("")
				if inst.State != nil {
					state = inst.State.Name
				}
				if state == ec2types.InstanceStateNameTerminated {
					continue
				}
				id := awssdk.ToString(inst.InstanceId)
				records = append(records, types.ResourceRecord{
					ID:        id,
					Name:      nameTag(inst.Tags, id),
					Timestamp: awssdk.ToTime(inst.LaunchTime),
					Details: map[string]string{
						"instance_type": string(inst.InstanceType),
						"state":         string(state),
					},
				})
			}
		}
	}
	return records, nil
}

func nameTag(tags []ec2types.Tag, fallback string) string {
	for _, t := range tags {
		if awssdk.ToString(t.Key) == "Name" && awssdk.ToString(t.Value) != "" {
			return awssdk.ToString(t.Value)
		}
	}
	return fallback
}

// Listers returns every lister backed by clients
func Listers(c *Clients) []scanner.Lister {
	return []scanner.Lister{
		NewOpenSearchDomains(c.OpenSearch),
		NewServerlessCollections(c.Serverless),
		NewLambdaFunctions(c.Lambda),
		NewEC2Instances(c.EC2),
	}
}
