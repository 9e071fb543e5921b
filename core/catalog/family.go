package catalog

import "strings"

// Family groups the billed service names that share one resource API
type Family int

const (
	FamilyNone Family = iota
	FamilyOpenSearch
	FamilyOpenSearchServerless
	FamilyRedshift
	FamilyLambda
	FamilyEC2
	FamilyRDS
	FamilyS3
	FamilyManual
)

// familyNames holds exact Cost Explorer display names, lowercased.
// Names sharing a prefix with another service (ECR, ECS, "EC2 - Other")
// are deliberately absent.
var familyNames = map[string]Family{
	"amazon opensearch service":              FamilyOpenSearch,
	"opensearch service":                     FamilyOpenSearch,
	"amazon elasticsearch service":           FamilyOpenSearch,
	"opensearch serverless":                  FamilyOpenSearchServerless,
	"amazon opensearch serverless":           FamilyOpenSearchServerless,
	"aws opensearch serverless":              FamilyOpenSearchServerless,
	"amazon redshift":                        FamilyRedshift,
	"aws lambda":                             FamilyLambda,
	"amazon ec2":                             FamilyEC2,
	"amazon elastic compute cloud":           FamilyEC2,
	"amazon elastic compute cloud - compute": FamilyEC2,
	"amazon rds":                             FamilyRDS,
	"amazon relational database service":     FamilyRDS,
	"amazon s3":                              FamilyS3,
	"amazon simple storage service":          FamilyS3,
}

// manualKeywords mark services canceled only in the console
var manualKeywords = []string{"Marketplace", "Skill Builder"}

// FamilyOf maps a display name to its family. Resource families match the
// exact name only; manual families match by keyword.
func FamilyOf(service string) Family {
	if f, ok := familyNames[strings.ToLower(strings.TrimSpace(service))]; ok {
		return f
	}
	for _, k := range manualKeywords {
		if strings.Contains(service, k) {
			return FamilyManual
		}
	}
	return FamilyNone
}
