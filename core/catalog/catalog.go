// Package catalog - Static knowledge about billed AWS services
// Console paths, detail strings, consolidation and relationship tables,
// and billing-model classification. A Catalog is built once and passed
// to the services that need it; nothing here is package-global state.
package catalog

import (
	"sort"
	"strings"
	"sync"
)

// BillingModel classifies how a service is billed
type BillingModel int

const (
	// ResourceBased - billed while a resource exists, cancelable
	ResourceBased BillingModel = iota
	// PayAsYouGo - billed per request, nothing to delete
	PayAsYouGo
	// Required - cannot be canceled (tax)
	Required
)

// String returns string representation
func (m BillingModel) String() string {
	switch m {
	case ResourceBased:
		return "Resource-Based"
	case PayAsYouGo:
		return "Pay-As-You-Go"
	case Required:
		return "Required"
	default:
		return "unknown"
	}
}

// ServiceEntry is a catalog entry for a billed service
type ServiceEntry struct {
	// Keyword is matched as a substring of the display name
	Keyword string

	// ConsolePath is the service's console landing page
	ConsolePath string

	// Detail is the one-line description shown in the report
	Detail string
}

// FallbackConsolePath is used for services with no catalog entry
const FallbackConsolePath = "https://us-east-1.console.aws.amazon.com/billing/home#/bills"

// FallbackDetail is used for services with no catalog entry
const FallbackDetail = "Usage charges"

// Catalog is the service knowledge base
type Catalog struct {
	mu            sync.RWMutex
	entries       map[string]*ServiceEntry
	order         []string
	consolidation map[string]string
	relationships map[string]string
	payAsYouGo    map[string]bool
	required      map[string]bool
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		entries:       make(map[string]*ServiceEntry),
		consolidation: make(map[string]string),
		relationships: make(map[string]string),
		payAsYouGo:    make(map[string]bool),
		required:      make(map[string]bool),
	}
}

// Default returns a catalog populated with the built-in AWS tables
func Default() *Catalog {
	c := New()
	registerAWS(c)
	return c
}

// Register adds a service entry. Earlier registrations win on keyword overlap.
func (c *Catalog) Register(entry ServiceEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[entry.Keyword]; !exists {
		c.order = append(c.order, entry.Keyword)
	}
	e := entry
	c.entries[entry.Keyword] = &e
}

// Lookup returns the first entry whose keyword is contained in name
func (c *Catalog) Lookup(name string) (*ServiceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[name]; ok {
		return e, true
	}
	for _, kw := range c.order {
		if strings.Contains(name, kw) {
			return c.entries[kw], true
		}
	}
	return nil, false
}

// Detail returns the description for a service
func (c *Catalog) Detail(name string) string {
	if e, ok := c.Lookup(name); ok && e.Detail != "" {
		return e.Detail
	}
	return FallbackDetail
}

// ConsolePath returns the console landing page for a service
func (c *Catalog) ConsolePath(name string) string {
	if e, ok := c.Lookup(name); ok && e.ConsolePath != "" {
		return e.ConsolePath
	}
	return FallbackConsolePath
}

// ServicePaths returns keyword → console path for every entry
func (c *Catalog) ServicePaths() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for kw, e := range c.entries {
		out[kw] = e.ConsolePath
	}
	return out
}

// Consolidate maps a child line item to the parent it rolls into
func (c *Catalog) Consolidate(child, parent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consolidation[child] = parent
}

// Consolidation returns a copy of the child → parent table
func (c *Catalog) Consolidation() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.consolidation)
}

// ParentOf returns the consolidation parent for name.
// Exact keys match first, then the longest child key contained in name.
func (c *Catalog) ParentOf(name string) (string, bool) {
	return ParentIn(c.Consolidation(), name)
}

// ParentIn resolves name against a child → parent table
func ParentIn(mapping map[string]string, name string) (string, bool) {
	if parent, ok := mapping[name]; ok {
		return parent, true
	}
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(name, k) {
			return mapping[k], true
		}
	}
	return "", false
}

// Relate records that a dependent line item's status follows another service's ledger entry
func (c *Catalog) Relate(dependent, ledgerKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relationships[dependent] = ledgerKey
}

// RelatedService returns the ledger key a dependent line item follows
func (c *Catalog) RelatedService(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.relationships[name]
	return key, ok
}

// Relationships returns a copy of the dependent → ledger-key table
func (c *Catalog) Relationships() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.relationships)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
