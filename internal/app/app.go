// Package app wires configuration into the adapters and domain services
// shared by the CLI and the HTTP server.
package app

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	awsadapter "aws-cost/adapters/aws"
	"aws-cost/adapters/html"
	"aws-cost/adapters/storage"
	"aws-cost/core/analysis"
	"aws-cost/core/cache"
	"aws-cost/core/cancellation"
	"aws-cost/core/catalog"
	"aws-cost/core/detective"
	"aws-cost/core/scanner"
	"aws-cost/internal/config"
	"aws-cost/internal/logging"
)

// classificationTimeout bounds the Price List refresh at startup
const classificationTimeout = 20 * time.Second

// App holds the wired components
type App struct {
	Config     *config.Config
	Clients    *awsadapter.Clients
	Costs      *awsadapter.CostExplorer
	Ledger     *storage.FileLedger
	Cache      cache.Store
	Catalog    *catalog.Catalog
	Scanner    *scanner.Scanner
	Regions    *awsadapter.RegionSource
	Detective  *detective.Detective
	Renderer   *html.Renderer
	Analysis   *analysis.Service
	Dispatcher *cancellation.Dispatcher

	closers []io.Closer
}

// Build loads AWS credentials and wires every component from cfg
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.Named("app")

	clients, err := awsadapter.NewClients(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewCacheStore(ctx, storage.Options{
		Backend:   storage.Backend(cfg.Cache.Backend),
		Directory: cfg.Cache.Directory,
		RedisAddr: cfg.Cache.RedisAddr,
	})
	if err != nil {
		return nil, err
	}
	a, err := assemble(ctx, cfg, clients, store)
	if err != nil {
		return nil, err
	}
	log.Debug("components wired",
		zap.String("region", clients.Region()),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("ledger", cfg.Ledger.Path))
	return a, nil
}

// assemble wires the components over an opened store. The store is
// closed when wiring fails.
func assemble(ctx context.Context, cfg *config.Config, clients *awsadapter.Clients, store cache.Store) (_ *App, err error) {
	a := &App{
		Config:  cfg,
		Clients: clients,
		Costs:   awsadapter.NewCostExplorer(clients.CostExplorer(), cfg.CallTimeout()),
		Ledger:  storage.NewFileLedger(cfg.Ledger.Path),
		Cache:   store,
		Catalog: catalog.Default(),
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.Renderer, err = html.NewRenderer(cfg.Report.OutputDir)
	if err != nil {
		return nil, err
	}

	audit := awsadapter.NewAuditLog(clients.CloudTrail)
	registry := scanner.NewRegistry()
	for _, l := range awsadapter.Listers(clients) {
		if err = registry.Register(l); err != nil {
			return nil, err
		}
	}
	a.Scanner = scanner.New(registry,
		scanner.WithWorkers(cfg.AWS.MaxWorkers),
		scanner.WithCallTimeout(cfg.CallTimeout()),
		scanner.WithAudit(audit))

	refreshCtx, cancel := context.WithTimeout(ctx, classificationTimeout)
	added := a.Catalog.RefreshClassifications(refreshCtx,
		awsadapter.NewPricingClassifier(clients.Pricing()), store, cfg.CacheTTL())
	cancel()
	logging.Named("app").Debug("service classifications refreshed", zap.Int("added", added))

	a.Regions = awsadapter.NewRegionSource(clients.EC2(clients.Region()), cfg.AWS.Regions).
		WithActivity(a.Costs, cfg.Report.DaysBack)

	a.Detective = detective.New(a.Costs, a.Scanner,
		detective.WithAudit(audit),
		detective.WithRegionSource(a.Regions),
		detective.WithCache(store, cfg.CacheTTL()),
		detective.WithCallTimeout(cfg.CallTimeout()))

	a.Analysis = analysis.NewService(a.Costs, a.Ledger, a.Catalog,
		analysis.WithDetective(a.Detective),
		analysis.WithReportGenerator(a.Renderer),
		analysis.WithPathCache(store, cfg.CacheTTL()))

	a.Dispatcher = cancellation.NewDispatcher(a.Ledger,
		cancellation.WithCallTimeout(cfg.CallTimeout()),
		cancellation.WithCatalog(a.Catalog))
	a.Dispatcher.Register(awsadapter.Handlers(clients)...)
	return a, nil
}

// Close releases connections held by the cache backend
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
