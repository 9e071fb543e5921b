package usagetype

import (
	"testing"

	"github.com/shopspring/decimal"

	"aws-cost/core/types"
)

func usage(code string, amount float64) types.UsageCost {
	return types.UsageCost{UsageType: code, Amount: decimal.NewFromFloat(amount)}
}

func TestParseFixtures(t *testing.T) {
	tests := []struct {
		code      string
		prefix    string
		region    string
		operation string
		class     string
	}{
		{"USE1-SearchOCU-t2.small.search", "USE1", "us-east-1", "SearchOCU", "t2.small.search"},
		{"USE1-ServerlessIndexingOCU", "USE1", "us-east-1", "ServerlessIndexingOCU", ""},
		{"EUW1-ES:Standard-Storage", "EUW1", "eu-west-1", "ES:Standard", "Storage"},
		{"USW2-BoxUsage:t3.micro", "USW2", "us-west-2", "BoxUsage:t3.micro", ""},
		{"EUC1-Lambda-GB-Second", "EUC1", "eu-central-1", "Lambda", "GB-Second"},
		{"Requests-Tier1", "", "", "Requests", "Tier1"},
		{"XYZ9-Unknown-thing", "", "", "XYZ9", "Unknown-thing"},
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			tok := Parse(tt.code)
			if tok.RegionPrefix != tt.prefix || tok.Region != tt.region {
				t.Errorf("prefix/region = %q/%q, want %q/%q", tok.RegionPrefix, tok.Region, tt.prefix, tt.region)
			}
			if tok.Operation != tt.operation {
				t.Errorf("operation = %q, want %q", tok.Operation, tt.operation)
			}
			if tok.InstanceClass != tt.class {
				t.Errorf("instance class = %q, want %q", tok.InstanceClass, tt.class)
			}
		})
	}
}

func TestResolveOpenSearchScenario(t *testing.T) {
	provisioned := Resolve([]types.UsageCost{usage("USE1-SearchOCU-t2.small.search", 4.2)}, "")
	if provisioned.Region != "us-east-1" || provisioned.Serverless {
		t.Errorf("provisioned = %+v, want us-east-1 non-serverless", provisioned)
	}
	if provisioned.Confidence != ConfidenceExact {
		t.Errorf("confidence = %s, want exact", provisioned.Confidence)
	}

	serverless := Resolve([]types.UsageCost{usage("USE1-ServerlessIndexingOCU", 4.2)}, "")
	if serverless.Region != "us-east-1" || !serverless.Serverless {
		t.Errorf("serverless = %+v, want us-east-1 serverless", serverless)
	}
}

func TestResolveKnownPrefixAlwaysWins(t *testing.T) {
	for prefix, region := range prefixRegions {
		res := Resolve([]types.UsageCost{usage(prefix+"-SomeOperation-x", 1)}, "ap-south-1")
		if res.Region != region || res.Confidence != ConfidenceExact {
			t.Errorf("%s: got %s/%s, want %s/exact", prefix, res.Region, res.Confidence, region)
		}
	}
}

func TestResolveUnknownPrefixFallsBack(t *testing.T) {
	codes := []string{"ZZZ1-SearchOCU", "SearchOCU", "Requests-Tier1", "-leading-dash", "use1-lowercase"}
	for _, code := range codes {
		res := Resolve([]types.UsageCost{usage(code, 3)}, "eu-west-2")
		if res.Region != "eu-west-2" || res.Confidence != ConfidenceDefault {
			t.Errorf("%q: got %s/%s, want eu-west-2/default", code, res.Region, res.Confidence)
		}
	}
}

func TestResolveServerlessIsCaseSensitive(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"USE1-ServerlessSearchOCU", true},
		{"USE1-OCU-Serverless", true},
		{"USE1-serverlessSearchOCU", false},
		{"USE1-SERVERLESS", false},
		{"USE1-SearchOCU-t2.small.search", false},
	}
	for _, tt := range tests {
		if got := Resolve([]types.UsageCost{usage(tt.code, 1)}, "").Serverless; got != tt.want {
			t.Errorf("%q: serverless = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestResolveLargestShareAndNoise(t *testing.T) {
	groups := []types.UsageCost{
		usage("USE1-SearchOCU", 2),
		usage("EUW1-SearchOCU", 3),
		usage("USE1-Storage", 2),
		// below the noise floor, ignored even though serverless
		usage("USW2-ServerlessIndexingOCU", 0.01),
	}
	res := Resolve(groups, "")
	if res.Region != "us-east-1" {
		t.Errorf("region = %s, want us-east-1 (4.00 vs 3.00)", res.Region)
	}
	if !res.RegionCost.Equal(decimal.NewFromInt(4)) {
		t.Errorf("region cost = %s, want 4", res.RegionCost)
	}
	if res.Serverless {
		t.Error("noise-level serverless group should not count")
	}
}

func TestResolveTieGoesToFirstSeen(t *testing.T) {
	res := Resolve([]types.UsageCost{usage("EUC1-A", 5), usage("USE2-A", 5)}, "")
	if res.Region != "eu-central-1" {
		t.Errorf("region = %s, want eu-central-1", res.Region)
	}
}

func TestResolveEmpty(t *testing.T) {
	res := Resolve(nil, "")
	if res.Region != DefaultRegion || res.Serverless || res.Confidence != ConfidenceDefault {
		t.Errorf("empty = %+v, want default tuple", res)
	}
}

func TestRegionForBillingName(t *testing.T) {
	tests := map[string]string{
		"US East (N. Virginia)": "us-east-1",
		"EU (Frankfurt)":        "eu-central-1",
		"us-west-2":             "us-west-2",
		"global":                "global",
	}
	for in, want := range tests {
		if got := RegionForBillingName(in); got != want {
			t.Errorf("RegionForBillingName(%q) = %q, want %q", in, got, want)
		}
	}
}
