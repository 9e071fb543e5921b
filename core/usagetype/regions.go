package usagetype

// DefaultRegion is used when no usage type carries a known region prefix
const DefaultRegion = "us-east-1"

// CommonRegions are always scanned, whatever the bill says
var CommonRegions = []string{"us-east-1", "us-east-2", "us-west-1", "us-west-2", "eu-west-1", "eu-central-1"}

// prefixRegions maps billing usage-type prefixes to region codes
var prefixRegions = map[string]string{
	"USE1": "us-east-1",
	"USE2": "us-east-2",
	"USW1": "us-west-1",
	"USW2": "us-west-2",
	"EU":   "eu-west-1",
	"EUW1": "eu-west-1",
	"EUW2": "eu-west-2",
	"EUW3": "eu-west-3",
	"EUC1": "eu-central-1",
	"EUC2": "eu-central-2",
	"EUN1": "eu-north-1",
	"EUS1": "eu-south-1",
	"APN1": "ap-northeast-1",
	"APN2": "ap-northeast-2",
	"APN3": "ap-northeast-3",
	"APS1": "ap-southeast-1",
	"APS2": "ap-southeast-2",
	"APS3": "ap-south-1",
	"APE1": "ap-east-1",
	"CAN1": "ca-central-1",
	"SAE1": "sa-east-1",
	"MES1": "me-south-1",
	"AFS1": "af-south-1",
	"UGW1": "us-gov-west-1",
	"UGE1": "us-gov-east-1",
}

// billingRegionNames maps Cost Explorer REGION dimension labels to region codes
var billingRegionNames = map[string]string{
	"US East (N. Virginia)":     "us-east-1",
	"US East (Ohio)":            "us-east-2",
	"US West (N. California)":   "us-west-1",
	"US West (Oregon)":          "us-west-2",
	"EU (Ireland)":              "eu-west-1",
	"EU (London)":               "eu-west-2",
	"EU (Paris)":                "eu-west-3",
	"EU (Frankfurt)":            "eu-central-1",
	"EU (Stockholm)":            "eu-north-1",
	"Asia Pacific (Tokyo)":      "ap-northeast-1",
	"Asia Pacific (Seoul)":      "ap-northeast-2",
	"Asia Pacific (Singapore)":  "ap-southeast-1",
	"Asia Pacific (Sydney)":     "ap-southeast-2",
	"Asia Pacific (Mumbai)":     "ap-south-1",
	"Canada (Central)":          "ca-central-1",
	"South America (Sao Paulo)": "sa-east-1",
}

// RegionForPrefix returns the region for a usage-type prefix
func RegionForPrefix(prefix string) (string, bool) {
	region, ok := prefixRegions[prefix]
	return region, ok
}

// RegionForBillingName converts a billing region label to a region code.
// Region codes and unknown labels pass through unchanged.
func RegionForBillingName(name string) string {
	if region, ok := billingRegionNames[name]; ok {
		return region
	}
	return name
}
