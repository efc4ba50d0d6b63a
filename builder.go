package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hugr-lab/catalog-browser/catalog"
	"github.com/hugr-lab/catalog-browser/warehouse"
)

// Backend is an opened catalog backend: the warehouse connection, the result
// cache in front of it and the browser serving pages from the cache.
type Backend struct {
	// Querier is the warehouse connection.
	Querier *warehouse.SQLQuerier

	// Cache is nil when caching is disabled.
	Cache *warehouse.Cache

	// Browser serves catalog pages and detail views.
	Browser *catalog.Browser
}

// Close releases cached results and closes the warehouse connection.
func (b *Backend) Close() error {
	if b.Cache != nil {
		b.Cache.Close()
	}
	return b.Querier.Close()
}

// Builder opens a catalog backend using fluent API.
// Not thread-safe - use only during initialization.
type Builder struct {
	warehouse warehouse.Config
	catalog   catalog.Config
	noCache   bool
	logger    *slog.Logger
	built     bool
}

// NewBuilder creates a builder for an in-memory DuckDB warehouse and the
// default catalog configuration.
//
// Example:
//
//	backend, err := browser.NewBuilder().
//	    Warehouse(warehouse.Config{Driver: "sqlite", DSN: "catalog.db"}).
//	    Catalog(catalog.Config{View: "service_catalog"}).
//	    Build(ctx)
func NewBuilder() *Builder {
	return &Builder{
		catalog: catalog.DefaultConfig(),
	}
}

// Warehouse sets the warehouse connection.
func (b *Builder) Warehouse(cfg warehouse.Config) *Builder {
	b.warehouse = cfg
	return b
}

// Catalog sets the catalog configuration. Zero fields use catalog defaults.
func (b *Builder) Catalog(cfg catalog.Config) *Builder {
	b.catalog = cfg
	return b
}

// WithoutCache sends every query to the warehouse.
func (b *Builder) WithoutCache() *Builder {
	b.noCache = true
	return b
}

// Logger sets the logger of every backend component.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build opens the warehouse and assembles the backend.
// Can only be called once.
func (b *Builder) Build(ctx context.Context) (*Backend, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	if b.catalog.TTL < 0 {
		return nil, fmt.Errorf("%w: cache ttl must not be negative", ErrInvalidConfig)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	if b.warehouse.Logger == nil {
		b.warehouse.Logger = logger
	}
	if b.catalog.Logger == nil {
		b.catalog.Logger = logger
	}

	if b.warehouse.Driver == "" {
		b.warehouse.Driver = warehouse.DefaultDriver
	}

	q, err := warehouse.Open(ctx, b.warehouse)
	if err != nil {
		return nil, err
	}
	backend := &Backend{Querier: q}

	var querier warehouse.Querier = q
	if !b.noCache {
		backend.Cache = warehouse.NewCache(q, warehouse.CacheOptions{Logger: logger})
		querier = backend.Cache
	}
	backend.Browser = catalog.NewBrowser(querier, b.catalog)
	b.built = true

	logger.Info("catalog backend opened",
		"driver", b.warehouse.Driver,
		"view", backend.Browser.Config().View,
		"cache", backend.Cache != nil,
	)
	return backend, nil
}
