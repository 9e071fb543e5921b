package catalog

import (
	"fmt"
	"net/url"

	"aws-cost/core/types"
)

// ResourceConsoleURL builds a direct console link for a resource.
// An empty id links to the region's list page for that type.
func ResourceConsoleURL(region string, rt types.ResourceType, id string) string {
	base := fmt.Sprintf("https://%s.console.aws.amazon.com", region)
	esc := url.PathEscape(id)

	switch rt {
	case types.ResourceOpenSearchDomain:
		if id == "" {
			return fmt.Sprintf("%s/aos/home?region=%s#/opensearch/domains", base, region)
		}
		return fmt.Sprintf("%s/aos/home?region=%s#/opensearch/domains/%s", base, region, esc)
	case types.ResourceOpenSearchCollection:
		if id == "" {
			return fmt.Sprintf("%s/aos/home?region=%s#/serverless/collections", base, region)
		}
		return fmt.Sprintf("%s/aos/home?region=%s#/serverless/collections/%s", base, region, esc)
	case types.ResourceLambdaFunction:
		if id == "" {
			return fmt.Sprintf("%s/lambda/home?region=%s#/functions", base, region)
		}
		return fmt.Sprintf("%s/lambda/home?region=%s#/functions/%s", base, region, esc)
	case types.ResourceEC2Instance:
		if id == "" {
			return fmt.Sprintf("%s/ec2/home?region=%s#Instances:", base, region)
		}
		return fmt.Sprintf("%s/ec2/home?region=%s#InstanceDetails:instanceId=%s", base, region, esc)
	default:
		return FallbackConsolePath
	}
}

// AuditEventURL links to a single CloudTrail event
func AuditEventURL(region, eventID string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/cloudtrail/home?region=%s#/events?EventId=%s",
		region, region, url.QueryEscape(eventID))
}

// AuditSourceURL links to CloudTrail event history filtered by event source
func AuditSourceURL(region, eventSource string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/cloudtrail/home?region=%s#/events?EventSource=%s",
		region, region, url.QueryEscape(eventSource))
}

// CostExplorerURL links to Cost Explorer filtered to one service
func CostExplorerURL(service string) string {
	filter := fmt.Sprintf(`[{"dimension":"Service","values":[%q]}]`, service)
	return "https://us-east-1.console.aws.amazon.com/cost-management/home?region=us-east-1#/cost-explorer?filter=" +
		url.QueryEscape(filter)
}

// SupportCaseURL opens a technical support case for a service code
func SupportCaseURL(serviceCode string) string {
	return "https://us-east-1.console.aws.amazon.com/support/home?region=us-east-1#/case/create?issueType=technical&serviceCode=" +
		url.QueryEscape(serviceCode)
}
