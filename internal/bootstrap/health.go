package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/redis/go-redis/v9"

	"github.com/darahconnect/darah-dashboard/internal/adapters/darahapi"
)

const (
	healthComponentName = "darah-dashboard"
	healthVersion       = "1.0.0"
)

// healthEndpoints are the dependencies checked by the health handler. Nil entries are skipped.
type healthEndpoints struct {
	DB    *sql.DB
	Redis redis.UniversalClient
	API   *darahapi.Client
}

// buildHealth registers one check per configured dependency. The upstream API is marked
// SkipOnErr so an API outage reports the dashboard as degraded instead of unavailable.
func buildHealth(endpoints healthEndpoints) (*health.Health, error) {
	checks := make([]health.Config, 0, 3)
	if endpoints.DB != nil {
		db := endpoints.DB
		checks = append(checks, health.Config{
			Name:    "postgres",
			Timeout: 3 * time.Second,
			Check: func(ctx context.Context) error {
				if err := db.PingContext(ctx); err != nil {
					return fmt.Errorf("postgres ping: %w", err)
				}
				return nil
			},
		})
	}
	if endpoints.Redis != nil {
		client := endpoints.Redis
		checks = append(checks, health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				return nil
			},
		})
	}
	if endpoints.API != nil {
		api := endpoints.API
		checks = append(checks, health.Config{
			Name:      "darah-api",
			Timeout:   5 * time.Second,
			SkipOnErr: true,
			Check:     api.Ping,
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    healthComponentName,
			Version: healthVersion,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("create health checks: %w", err)
	}
	return h, nil
}
