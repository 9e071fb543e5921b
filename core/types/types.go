// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "time"

// Status is the lifecycle state shown for a billed service
type Status string

const (
	StatusActive     Status = "Active"
	StatusCanceled   Status = "Canceled"
	StatusRequired   Status = "Required"
	StatusPayAsYouGo Status = "Pay-As-You-Go"
)

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// Cancelable reports whether a cancel action makes sense for the status
func (s Status) Cancelable() bool {
	return s == StatusActive
}

// ResourceType tags a kind of enumerable cloud resource
type ResourceType string

const (
	ResourceOpenSearchDomain     ResourceType = "opensearch:domain"
	ResourceOpenSearchCollection ResourceType = "opensearch:serverless-collection"
	ResourceLambdaFunction       ResourceType = "lambda:function"
	ResourceEC2Instance          ResourceType = "ec2:instance"
)

// String returns the string representation
func (r ResourceType) String() string {
	return string(r)
}

// IsValid checks if the resource type is known
func (r ResourceType) IsValid() bool {
	switch r {
	case ResourceOpenSearchDomain, ResourceOpenSearchCollection, ResourceLambdaFunction, ResourceEC2Instance:
		return true
	default:
		return false
	}
}

// AllResourceTypes lists every enumerable resource type in display order
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceOpenSearchDomain,
		ResourceOpenSearchCollection,
		ResourceLambdaFunction,
		ResourceEC2Instance,
	}
}

// ResourceStatus is the observed state of a discovered resource
type ResourceStatus string

const (
	ResourceActive  ResourceStatus = "active"
	ResourceDeleted ResourceStatus = "deleted"
	ResourceUnknown ResourceStatus = "unknown"
)

// ResourceRecord is a concrete cloud resource discovered via enumeration
type ResourceRecord struct {
	// ID is the provider identifier (domain name, collection id, function name, instance id)
	ID string `json:"id"`

	// Name is the human-readable name, equal to ID when the API has no separate name
	Name string `json:"name"`

	// Region is the AWS region code
	Region string `json:"region"`

	// Type is the resource type tag
	Type ResourceType `json:"type"`

	// Status is active for listed resources, deleted for audit-log findings
	Status ResourceStatus `json:"status"`

	// Timestamp is creation, last-modified, or deletion time when known
	Timestamp time.Time `json:"timestamp,omitempty"`

	// ConsoleURL links directly to the resource in the AWS console
	ConsoleURL string `json:"console_url"`

	// Details carries type-specific attributes (instance type, engine version, ...)
	Details map[string]string `json:"details,omitempty"`
}

// ConsoleAction is a manual step with a console link
type ConsoleAction struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Instructions string `json:"instructions"`
}

// AuditEvent is one audit-log entry returned by an event lookup
type AuditEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Region    string    `json:"region"`
	Time      time.Time `json:"time"`
	Username  string    `json:"username,omitempty"`
	Resources []string  `json:"resources,omitempty"`

	// Payload is the raw event document
	Payload string `json:"-"`
}

// AuditQuery filters an audit-log lookup. Exactly one of EventName or EventSource is used,
// EventName taking precedence.
type AuditQuery struct {
	EventName   string
	EventSource string
	Start       time.Time
	End         time.Time
	MaxResults  int
}
