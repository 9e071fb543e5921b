package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"aws-cost/core/cache"
	"aws-cost/core/ports"
	"aws-cost/internal/logging"
)

// payAsYouGoKeywords mark usage-billed services that no list can enumerate
var payAsYouGoKeywords = []string{"API Gateway", "SageMaker"}

// MarkPayAsYouGo records services billed per request
func (c *Catalog) MarkPayAsYouGo(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			c.payAsYouGo[n] = true
		}
	}
}

// MarkRequired records services that cannot be canceled
func (c *Catalog) MarkRequired(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		c.required[n] = true
	}
}

// PayAsYouGoServices returns the known pay-as-you-go names, sorted
func (c *Catalog) PayAsYouGoServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.payAsYouGo))
	for n := range c.payAsYouGo {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Classify returns the billing model for a display name.
// Required wins over pay-as-you-go; anything unmatched is resource based.
func (c *Catalog) Classify(name string) BillingModel {
	name = strings.TrimSpace(name)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.required[name] || strings.Contains(name, "Tax") {
		return Required
	}
	if c.payAsYouGo[name] {
		return PayAsYouGo
	}
	for known := range c.payAsYouGo {
		if strings.Contains(name, known) {
			return PayAsYouGo
		}
	}
	for _, kw := range payAsYouGoKeywords {
		if strings.Contains(name, kw) {
			return PayAsYouGo
		}
	}
	return ResourceBased
}

// classificationKey is the cache key for the discovered pay-as-you-go list
const classificationKey = "service-classifications:pay-as-you-go"

// RefreshClassifications merges pay-as-you-go services discovered by src into the catalog.
// The discovered list is kept in store for ttl so repeat runs skip the pricing API.
// Discovery failures are logged and leave the built-in list in place.
func (c *Catalog) RefreshClassifications(ctx context.Context, src ports.ClassificationSource, store cache.Store, ttl time.Duration) int {
	rt := cache.NewReadThrough[[]string](store, ttl)
	names, err := rt.Get(ctx, classificationKey, src.PayAsYouGoServices)
	if err != nil {
		logging.Warn("service classification refresh failed, using built-in list", zap.Error(err))
		return 0
	}
	before := len(c.PayAsYouGoServices())
	c.MarkPayAsYouGo(names...)
	return len(c.PayAsYouGoServices()) - before
}
