package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"aws-cost/core/types"
)

// maxAuditEvents caps how many events one lookup reads across pages
const maxAuditEvents = 200

// AuditLog implements ports.AuditPort with CloudTrail event history
type AuditLog struct {
	client func(region string) CloudTrailAPI
}

// NewAuditLog creates the audit adapter
func NewAuditLog(client func(region string) CloudTrailAPI) *AuditLog {
	return &AuditLog{client: client}
}

// LookupEvents returns events matching the query, newest first
func (a *AuditLog) LookupEvents(ctx context.Context, region string, q types.AuditQuery) ([]types.AuditEvent, error) {
	in := &cloudtrail.LookupEventsInput{
		StartTime: awssdk.Time(q.Start),
		EndTime:   awssdk.Time(q.End),
	}
	switch {
	case q.EventName != "":
		in.LookupAttributes = []cttypes.LookupAttribute{{
			AttributeKey:   cttypes.LookupAttributeKeyEventName,
			AttributeValue: awssdk.String(q.EventName),
		}}
	case q.EventSource != "":
		in.LookupAttributes = []cttypes.LookupAttribute{{
			AttributeKey:   cttypes.LookupAttributeKeyEventSource,
			AttributeValue: awssdk.String(q.EventSource),
		}}
	}

	limit := maxAuditEvents
	if q.MaxResults > 0 {
		limit = q.MaxResults
		if limit < 50 {
			in.MaxResults = awssdk.Int32(int32(limit))
		}
	}

	var events []types.AuditEvent
	p := cloudtrail.NewLookupEventsPaginator(a.client(region), in)
	for p.HasMorePages() && len(events) < limit {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, Classify("LookupEvents", err)
		}
		for _, ev := range page.Events {
			events = append(events, convertEvent(region, ev))
			if len(events) == limit {
				break
			}
		}
	}
	return events, nil
}

func convertEvent(region string, ev cttypes.Event) types.AuditEvent {
	out := types.AuditEvent{
		ID:       awssdk.ToString(ev.EventId),
		Name:     awssdk.ToString(ev.EventName),
		Source:   awssdk.ToString(ev.EventSource),
		Region:   region,
		Time:     awssdk.ToTime(ev.EventTime),
		Username: awssdk.ToString(ev.Username),
		Payload:  awssdk.ToString(ev.CloudTrailEvent),
	}
	for _, r := range ev.Resources {
		if name := awssdk.ToString(r.ResourceName); name != "" {
			out.Resources = append(out.Resources, name)
		}
	}
	return out
}
