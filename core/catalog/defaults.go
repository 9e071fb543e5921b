package catalog

// registerAWS populates the catalog with the built-in AWS tables
func registerAWS(c *Catalog) {
	// Billing & cost management
	c.Register(ServiceEntry{Keyword: "Cost Explorer", ConsolePath: "https://us-east-1.console.aws.amazon.com/cost-management/home#/cost-explorer", Detail: "API requests and analysis"})
	c.Register(ServiceEntry{Keyword: "Budgets", ConsolePath: "https://us-east-1.console.aws.amazon.com/billing/home#/budgets", Detail: "Budget alerts and actions"})
	c.Register(ServiceEntry{Keyword: "Tax", ConsolePath: "https://us-east-1.console.aws.amazon.com/billing/home#/bills", Detail: "Applicable taxes on services"})
	c.Register(ServiceEntry{Keyword: "Credit/Refund", ConsolePath: "https://us-east-1.console.aws.amazon.com/billing/home#/credits", Detail: "Credits and refunds applied to the bill"})

	// Analytics & AI
	c.Register(ServiceEntry{Keyword: "OpenSearch", ConsolePath: "https://us-east-1.console.aws.amazon.com/aos/home#/opensearch/domains", Detail: "Domain storage and instance hours"})
	c.Register(ServiceEntry{Keyword: "Bedrock", ConsolePath: "https://us-east-1.console.aws.amazon.com/bedrock/home#/foundation-models", Detail: "Model inference, tokens, API usage"})
	c.Register(ServiceEntry{Keyword: "Claude", ConsolePath: "https://us-east-1.console.aws.amazon.com/bedrock/home#/foundation-models", Detail: "Token usage and API calls"})
	c.Register(ServiceEntry{Keyword: "Redshift", ConsolePath: "https://us-east-1.console.aws.amazon.com/redshiftv2/home#/clusters", Detail: "Cluster node hours and storage"})

	// Compute & storage
	c.Register(ServiceEntry{Keyword: "Lambda", ConsolePath: "https://us-east-1.console.aws.amazon.com/lambda/home#/functions", Detail: "Compute time and requests"})
	c.Register(ServiceEntry{Keyword: "EC2", ConsolePath: "https://us-east-1.console.aws.amazon.com/ec2/home#Instances", Detail: "Compute instances and related services"})
	c.Register(ServiceEntry{Keyword: "Elastic Compute Cloud", ConsolePath: "https://us-east-1.console.aws.amazon.com/ec2/home#Instances", Detail: "Compute instances and related services"})
	c.Register(ServiceEntry{Keyword: "RDS", ConsolePath: "https://us-east-1.console.aws.amazon.com/rds/home#databases:", Detail: "Database instance hours and storage"})
	c.Register(ServiceEntry{Keyword: "Relational Database", ConsolePath: "https://us-east-1.console.aws.amazon.com/rds/home#databases:", Detail: "Database instance hours and storage"})
	c.Register(ServiceEntry{Keyword: "DynamoDB", ConsolePath: "https://us-east-1.console.aws.amazon.com/dynamodbv2/home#tables", Detail: "NoSQL database usage"})
	c.Register(ServiceEntry{Keyword: "S3", ConsolePath: "https://s3.console.aws.amazon.com/s3/buckets", Detail: "Storage and requests"})
	c.Register(ServiceEntry{Keyword: "Simple Storage", ConsolePath: "https://s3.console.aws.amazon.com/s3/buckets", Detail: "Storage usage"})
	c.Register(ServiceEntry{Keyword: "Simple Notification", ConsolePath: "https://us-east-1.console.aws.amazon.com/sns/v3/home#/topics", Detail: "Notification delivery"})
	c.Register(ServiceEntry{Keyword: "CloudWatch", ConsolePath: "https://us-east-1.console.aws.amazon.com/cloudwatch/home#home:", Detail: "Monitoring and observability"})
	c.Register(ServiceEntry{Keyword: "Data Transfer", ConsolePath: "https://us-east-1.console.aws.amazon.com/billing/home#/bills", Detail: "Data transfer and bandwidth"})

	// Subscriptions
	c.Register(ServiceEntry{Keyword: "Skill Builder", ConsolePath: "https://us-east-1.console.aws.amazon.com/skillbuilder/home#/subscriptions", Detail: "Learning subscription"})
	c.Register(ServiceEntry{Keyword: "Marketplace", ConsolePath: "https://aws.amazon.com/marketplace/management/subscriptions", Detail: "Third-party subscription"})

	// Per-model line items roll into their parent service
	for _, model := range []string{"Claude 3.7 Sonnet", "Claude 3.5 Sonnet", "Claude 3.5 Haiku", "Claude 3 Haiku", "Claude 3 Opus", "Claude 3 Sonnet"} {
		c.Consolidate(model, "Amazon Bedrock")
	}

	// Dependent lines follow the subscription's ledger entry
	c.Relate("AWS Skill Builder", "AWS Skill Builder Individual")
	c.Relate("Credit/Refund (AWS Skill Builder)", "AWS Skill Builder Individual")

	c.MarkPayAsYouGo(
		"Amazon Rekognition",
		"Amazon Transcribe",
		"Amazon Polly",
		"Amazon Textract",
		"Amazon Comprehend",
		"Amazon Translate",
		"Amazon Lex",
		"Amazon Kendra",
		"AWS CodeWhisperer",
	)
	c.MarkRequired("Tax", "AWS Tax", "Tax on AWS services")
}
