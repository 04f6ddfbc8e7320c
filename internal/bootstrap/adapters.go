package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/darahconnect/darah-dashboard/config"
	"github.com/darahconnect/darah-dashboard/internal/adapters/darahapi"
	redisadapter "github.com/darahconnect/darah-dashboard/internal/adapters/redis"
	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/data"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

// creatableResources accept items created from the dashboard.
//
//nolint:gochecknoglobals // fixed lookup table
var creatableResources = map[string]bool{
	darahapi.ResourceNotifications: true,
	darahapi.ResourceCertificates:  true,
}

// buildAPIClient creates the DarahConnect API client.
func buildAPIClient(cfg config.UpstreamConfig, observer darahapi.RequestObserver, logger *slog.Logger) (*darahapi.Client, error) {
	client, err := darahapi.NewClient(darahapi.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		Token:     cfg.Token,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Observer:  observer,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

// buildPageCache returns nil when caching is disabled or Redis is unavailable.
func buildPageCache(client redis.UniversalClient, cfg config.CacheConfig, logger *slog.Logger) *core.PageCache {
	if client == nil || !cfg.Enabled {
		return nil
	}
	return core.NewPageCache(core.PageCacheOptions{
		Cache:  data.NewRedisCacheRepo(client),
		TTL:    cfg.PageTTL,
		Prefix: cfg.Prefix,
		Logger: logger,
	})
}

func buildSessionStore(client redis.UniversalClient) core.SessionRepository {
	if client == nil {
		return nil
	}
	return redisadapter.NewSessionStore(client, redisadapter.SessionStoreOptions{})
}

func buildAuditRepo(db *sql.DB) core.AuditRepository {
	if db == nil {
		return nil
	}
	return data.NewAuditRepo(db)
}

// specFor converts an API descriptor into the view-facing source description.
func specFor(d darahapi.Descriptor) service.SourceSpec {
	return service.SourceSpec{
		Key:        d.Key,
		Title:      d.Title,
		PageSize:   d.PageSize,
		Statuses:   append([]string(nil), d.Statuses...),
		Filters:    append([]string(nil), d.Filters...),
		Targets:    d.Targets,
		Selectable: d.Selectable,
		Creatable:  creatableResources[d.Key],
	}
}

func bindSource[T model.Item[T]](c *darahapi.Client, r darahapi.Resource[T], pages *core.PageCache) (service.Source, error) {
	src, err := service.NewSource(specFor(r.Descriptor), darahapi.NewFetcher(c, r), pages)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", r.Key, err)
	}
	return src, nil
}

// buildSources binds every API resource in navigation order.
func buildSources(c *darahapi.Client, pages *core.PageCache) ([]service.Source, error) {
	binders := []func() (service.Source, error){
		func() (service.Source, error) { return bindSource(c, darahapi.Requests, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Campaigns, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Donors, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Donations, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Certificates, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.HealthPassports, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Hospitals, pages) },
		func() (service.Source, error) { return bindSource(c, darahapi.Notifications, pages) },
	}
	sources := make([]service.Source, 0, len(binders))
	for _, bind := range binders {
		src, err := bind()
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
