package aws

import (
	"context"
	"sort"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/samber/lo"
)

// requestBilledCodes maps Price List service codes billed per request to
// the service names Cost Explorer reports
var requestBilledCodes = map[string]string{
	"AmazonRekognition":        "Amazon Rekognition",
	"comprehend":               "Amazon Comprehend",
	"comprehendmedical":        "Amazon Comprehend Medical",
	"transcribe":               "Amazon Transcribe",
	"AmazonPolly":              "Amazon Polly",
	"translate":                "Amazon Translate",
	"AmazonTextract":           "Amazon Textract",
	"AmazonBedrock":            "Amazon Bedrock",
	"AmazonPersonalize":        "Amazon Personalize",
	"AmazonForecast":           "Amazon Forecast",
	"AmazonLex":                "Amazon Lex",
	"AmazonApiGateway":         "Amazon API Gateway",
	"AmazonSNS":                "Amazon Simple Notification Service",
	"AWSQueueService":          "Amazon Simple Queue Service",
	"AmazonKendra":             "Amazon Kendra",
	"AWSCostExplorer":          "AWS Cost Explorer",
	"AmazonLocationService":    "Amazon Location Service",
	"AmazonFraudDetector":      "Amazon Fraud Detector",
	"AWSStepFunctions":         "AWS Step Functions",
	"AmazonCloudWatch":         "AmazonCloudWatch",
	"AWSSecretsManager":        "AWS Secrets Manager",
	"awskms":                   "AWS Key Management Service",
	"AmazonSimpleEmailService": "Amazon Simple Email Service",
}

// PricingClassifier implements ports.ClassificationSource over the Price List API
type PricingClassifier struct {
	client PricingAPI
}

// NewPricingClassifier creates the classifier; client must target us-east-1
func NewPricingClassifier(client PricingAPI) *PricingClassifier {
	return &PricingClassifier{client: client}
}

// PayAsYouGoServices returns the request-billed services the Price List
// currently offers, sorted
func (p *PricingClassifier) PayAsYouGoServices(ctx context.Context) ([]string, error) {
	var names []string
	pager := pricing.NewDescribeServicesPaginator(p.client, &pricing.DescribeServicesInput{
		FormatVersion: awssdk.String("aws_v1"),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, Classify("DescribeServices", err)
		}
		for _, svc := range page.Services {
			if name, ok := requestBilledCodes[awssdk.ToString(svc.ServiceCode)]; ok {
				names = append(names, name)
			}
		}
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}
