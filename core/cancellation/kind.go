// Package cancellation dispatches cancel requests to per-resource handlers
// and records successful cancellations in the ledger.
package cancellation

import (
	"aws-cost/core/catalog"
)

// ResourceKind selects the handler for a cancel request
type ResourceKind int

const (
	KindUnknown ResourceKind = iota
	KindOpenSearchDomain
	KindOpenSearchCollection
	KindRedshiftCluster
	KindLambdaFunction
	KindEC2Instance
	KindRDSInstance
	KindS3Bucket
	KindMarketplace
)

var kindNames = map[ResourceKind]string{
	KindUnknown:              "unknown",
	KindOpenSearchDomain:     "opensearch-domain",
	KindOpenSearchCollection: "opensearch-collection",
	KindRedshiftCluster:      "redshift-cluster",
	KindLambdaFunction:       "lambda-function",
	KindEC2Instance:          "ec2-instance",
	KindRDSInstance:          "rds-instance",
	KindS3Bucket:             "s3-bucket",
	KindMarketplace:          "marketplace",
}

// String returns the kind's name
func (k ResourceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var familyKinds = map[catalog.Family]ResourceKind{
	catalog.FamilyOpenSearch:           KindOpenSearchDomain,
	catalog.FamilyOpenSearchServerless: KindOpenSearchCollection,
	catalog.FamilyRedshift:             KindRedshiftCluster,
	catalog.FamilyLambda:               KindLambdaFunction,
	catalog.FamilyEC2:                  KindEC2Instance,
	catalog.FamilyRDS:                  KindRDSInstance,
	catalog.FamilyS3:                   KindS3Bucket,
	catalog.FamilyManual:               KindMarketplace,
}

// KindForService maps a display name to its resource kind
func KindForService(service string) ResourceKind {
	if kind, ok := familyKinds[catalog.FamilyOf(service)]; ok {
		return kind
	}
	return KindUnknown
}
