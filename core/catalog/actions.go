package catalog

import (
	"fmt"
	"strings"

	"aws-cost/core/types"
)

// payAsYouGoResources names the persistent resources worth checking for usage-billed services
var payAsYouGoResources = map[string]struct {
	slug      string
	resources []string
}{
	"Amazon Rekognition": {"rekognition", []string{"face-collections"}},
	"Amazon Transcribe":  {"transcribe", []string{"custom-vocabulary", "custom-language-model"}},
	"Amazon Textract":    {"textract", nil},
	"Amazon Comprehend":  {"comprehend", []string{"entity-recognizers", "document-classifiers"}},
	"Amazon Polly":       {"polly", []string{"lexicons"}},
	"Amazon Translate":   {"translate", []string{"custom-terminology"}},
}

// Actions returns the console steps for stopping charges from a service.
// regions are where the service is billed; the first is treated as primary.
func (c *Catalog) Actions(service string, regions []string) []types.ConsoleAction {
	primary := "us-east-1"
	if len(regions) > 0 && regions[0] != "" {
		primary = regions[0]
	}

	switch {
	case strings.Contains(service, "OpenSearch"):
		return openSearchActions(primary, regions)
	case strings.Contains(service, "Cost Explorer"):
		return costExplorerActions()
	case strings.Contains(service, "Bedrock"), strings.Contains(service, "Claude"):
		return bedrockActions()
	case strings.Contains(service, "Marketplace"):
		return []types.ConsoleAction{ManualAction(service)}
	}

	if entry, ok := payAsYouGoResources[service]; ok {
		actions := []types.ConsoleAction{{
			Name:         service + " console",
			URL:          fmt.Sprintf("https://console.aws.amazon.com/%s/home?region=%s", entry.slug, primary),
			Instructions: "Usage-billed service: charges stop when API calls stop. Check which applications call it.",
		}}
		for _, r := range entry.resources {
			actions = append(actions, types.ConsoleAction{
				Name:         fmt.Sprintf("%s %s", service, strings.ReplaceAll(r, "-", " ")),
				URL:          fmt.Sprintf("https://console.aws.amazon.com/%s/home?region=%s#%s", entry.slug, primary, r),
				Instructions: fmt.Sprintf("Delete unused %s to avoid storage charges", strings.ReplaceAll(r, "-", " ")),
			})
		}
		return actions
	}

	return []types.ConsoleAction{{
		Name:         service + " console",
		URL:          c.ConsolePath(service),
		Instructions: "Review active resources and delete the ones you no longer need",
	}}
}

// ManualAction is the only outcome for services without an API-level cancellation
func ManualAction(service string) types.ConsoleAction {
	if strings.Contains(service, "Skill Builder") {
		return types.ConsoleAction{
			Name:         "Skill Builder subscriptions",
			URL:          "https://skillbuilder.aws/subscriptions",
			Instructions: "Open the subscription and choose Cancel subscription. Billing stops at the end of the current period.",
		}
	}
	return types.ConsoleAction{
		Name:         "Marketplace subscriptions",
		URL:          "https://aws.amazon.com/marketplace/management/subscriptions",
		Instructions: fmt.Sprintf("Find %q in Manage subscriptions, open it, and choose Cancel subscription.", service),
	}
}

func openSearchActions(primary string, regions []string) []types.ConsoleAction {
	base := fmt.Sprintf("https://console.aws.amazon.com/opensearch/home?region=%s#", primary)
	actions := []types.ConsoleAction{
		{
			Name:         "OpenSearch domains",
			URL:          ResourceConsoleURL(primary, types.ResourceOpenSearchDomain, ""),
			Instructions: "Select any active domains and choose Delete",
		},
		{
			Name:         "OpenSearch Serverless collections",
			URL:          ResourceConsoleURL(primary, types.ResourceOpenSearchCollection, ""),
			Instructions: "Delete unused collections; OCUs bill while a collection exists",
		},
		{Name: "Serverless data access policies", URL: base + "/serverless/data-access-policies", Instructions: "Remove policies left by deleted collections"},
		{Name: "Serverless encryption policies", URL: base + "/serverless/encryption-policies", Instructions: "Remove policies left by deleted collections"},
		{Name: "Serverless network policies", URL: base + "/serverless/network-policies", Instructions: "Remove policies left by deleted collections"},
	}
	for _, r := range regions {
		if r == primary || r == "" {
			continue
		}
		actions = append(actions, types.ConsoleAction{
			Name:         "OpenSearch Serverless collections in " + r,
			URL:          ResourceConsoleURL(r, types.ResourceOpenSearchCollection, ""),
			Instructions: "Charges were also billed in this region",
		})
	}
	return append(actions, types.ConsoleAction{
		Name:         "Recent OpenSearch Serverless deletions",
		URL:          AuditSourceURL(primary, "aoss.amazonaws.com"),
		Instructions: "Confirm when collections were deleted; charges for the partial period still appear",
	})
}

func costExplorerActions() []types.ConsoleAction {
	return []types.ConsoleAction{
		{Name: "Cost Management dashboard", URL: "https://console.aws.amazon.com/cost-management/home#/dashboard", Instructions: "Cost Explorer API requests are billed per call"},
		{Name: "Cost Explorer API callers", URL: "https://console.aws.amazon.com/cloudtrail/home#/events?EventSource=ce.amazonaws.com", Instructions: "Find tools calling the Cost Explorer API and reduce their polling"},
		{Name: "Saved reports", URL: "https://console.aws.amazon.com/cost-management/home#/reports", Instructions: "Delete scheduled reports you no longer need"},
		{Name: "Budgets", URL: "https://console.aws.amazon.com/billing/home#/budgets", Instructions: "Budgets with actions are billed per day"},
	}
}

func bedrockActions() []types.ConsoleAction {
	return []types.ConsoleAction{
		{Name: "Bedrock overview", URL: "https://console.aws.amazon.com/bedrock/home#/overview", Instructions: "Model inference is billed per token"},
		{Name: "Model access", URL: "https://console.aws.amazon.com/bedrock/home#/modelaccess", Instructions: "Choose Modify model access and remove models you no longer use"},
		{Name: "Knowledge bases", URL: "https://console.aws.amazon.com/bedrock/home#/knowledgebases", Instructions: "Delete knowledge bases and their vector stores"},
		{Name: "Evaluation jobs", URL: "https://console.aws.amazon.com/bedrock/home#/evaluation-jobs", Instructions: "Stop running evaluation jobs"},
		{Name: "Bedrock API callers", URL: "https://console.aws.amazon.com/cloudtrail/home#/events?EventSource=bedrock.amazonaws.com", Instructions: "Find applications invoking models"},
	}
}
