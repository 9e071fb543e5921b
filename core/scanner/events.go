package scanner

import (
	"encoding/json"
	"strings"

	"aws-cost/core/types"
)

// eventDocument is the subset of a CloudTrail event document we read
type eventDocument struct {
	RequestParameters map[string]any `json:"requestParameters"`
	Resources         []struct {
		ARN string `json:"ARN"`
	} `json:"resources"`
}

// resourceNameKeys are request parameters that name the affected resource
var resourceNameKeys = []string{"domainName", "name", "functionName", "id"}

// ResourceNameFromEvent extracts the affected resource name from an audit
// event: a naming request parameter first, then the last path segment of the
// first resource ARN, then the event's own resource list.
func ResourceNameFromEvent(ev types.AuditEvent) string {
	if ev.Payload != "" {
		var doc eventDocument
		if err := json.Unmarshal([]byte(ev.Payload), &doc); err == nil {
			for _, key := range resourceNameKeys {
				if v, ok := doc.RequestParameters[key].(string); ok && v != "" {
					return v
				}
			}
			if len(doc.Resources) > 0 {
				if name := nameFromARN(doc.Resources[0].ARN); name != "" {
					return name
				}
			}
		}
	}
	if len(ev.Resources) > 0 {
		return nameFromARN(ev.Resources[0])
	}
	return ""
}

// nameFromARN returns the segment after the last "/" (domain/x, collection/x),
// or the input when it is not a path-style ARN
func nameFromARN(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
