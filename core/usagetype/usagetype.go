// Package usagetype decodes billing usage-type codes into a region and a billing model.
//
// Usage-type strings look like "USE1-SearchOCU-t2.small.search" or
// "USE1-ServerlessIndexingOCU". The format is not a published contract, so
// parsing is best effort: unknown tokens are ignored and nothing here returns
// an error.
package usagetype

import (
	"strings"

	"github.com/shopspring/decimal"

	"aws-cost/core/types"
)

// Confidence tells whether the region came from the data or from the fallback
type Confidence string

const (
	ConfidenceExact   Confidence = "exact"
	ConfidenceDefault Confidence = "default"
)

// serverlessMarker is matched case-sensitively
const serverlessMarker = "Serverless"

// minCost is the floor below which a usage group is noise
var minCost = decimal.RequireFromString("0.01")

// Token is a usage-type code split into its parts
type Token struct {
	Raw           string `json:"raw"`
	RegionPrefix  string `json:"region_prefix,omitempty"`
	Region        string `json:"region,omitempty"`
	Operation     string `json:"operation,omitempty"`
	InstanceClass string `json:"instance_class,omitempty"`
}

// Serverless reports whether the code indicates a serverless billing model
func (t Token) Serverless() bool {
	return strings.Contains(t.Raw, serverlessMarker)
}

// Parse splits a usage-type code on "-". The first part is a region prefix
// only when it appears in the known table.
func Parse(usageType string) Token {
	tok := Token{Raw: usageType}
	parts := strings.Split(strings.TrimSpace(usageType), "-")
	if len(parts) == 0 || parts[0] == "" {
		return tok
	}

	if region, ok := RegionForPrefix(parts[0]); ok {
		tok.RegionPrefix = parts[0]
		tok.Region = region
		parts = parts[1:]
	}
	if len(parts) > 0 {
		tok.Operation = parts[0]
	}
	if len(parts) > 1 {
		tok.InstanceClass = strings.Join(parts[1:], "-")
	}
	return tok
}

// Resolution is the resolver's verdict for one service
type Resolution struct {
	Region     string          `json:"region"`
	Serverless bool            `json:"serverless"`
	Confidence Confidence      `json:"confidence"`
	RegionCost decimal.Decimal `json:"region_cost"`
	UsageTypes []string        `json:"usage_types,omitempty"`
}

// Resolve picks the region carrying the largest share of cost and the billing model.
// Groups at or below $0.01 are ignored. Ties go to the region seen first.
// With no usable prefix the result is defaultRegion with ConfidenceDefault.
func Resolve(groups []types.UsageCost, defaultRegion string) Resolution {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	res := Resolution{Region: defaultRegion, Confidence: ConfidenceDefault}

	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, g := range groups {
		if !g.Amount.GreaterThan(minCost) {
			continue
		}
		tok := Parse(g.UsageType)
		res.UsageTypes = append(res.UsageTypes, g.UsageType)
		if tok.Serverless() {
			res.Serverless = true
		}
		if tok.Region == "" {
			continue
		}
		if _, seen := totals[tok.Region]; !seen {
			order = append(order, tok.Region)
		}
		totals[tok.Region] = totals[tok.Region].Add(g.Amount)
	}

	for _, region := range order {
		if res.Confidence == ConfidenceDefault || totals[region].GreaterThan(res.RegionCost) {
			res.Region = region
			res.RegionCost = totals[region]
			res.Confidence = ConfidenceExact
		}
	}
	return res
}
