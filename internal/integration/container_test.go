package integration_test

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/metinatakli/storefront-payments/internal/repository"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// backingServices are the containers one suite run talks to.
type backingServices struct {
	postgres *postgres.PostgresContainer
	redis    *tcredis.RedisContainer

	DSN       string
	RedisAddr string
}

func startBackingServices(ctx context.Context) (*backingServices, error) {
	services := &backingServices{}

	err := services.startPostgres(ctx)
	if err != nil {
		return nil, err
	}

	err = services.startRedis(ctx)
	if err != nil {
		services.Terminate()
		return nil, err
	}

	return services, nil
}

func (b *backingServices) startPostgres(ctx context.Context) error {
	container, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
						dbUser, dbPassword, host, port.Port(), dbName)
				}),
			).WithDeadline(60*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}

	b.postgres = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	err = repository.Migrate(dsn, "file://../../migrations", repository.MigrateUp)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	b.DSN = dsn

	return nil
}

func (b *backingServices) startRedis(ctx context.Context) error {
	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return fmt.Errorf("failed to start redis container: %w", err)
	}

	b.redis = container

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to get redis endpoint: %w", err)
	}

	b.RedisAddr = endpoint

	return nil
}

func (b *backingServices) Terminate() []error {
	var errs []error

	if b.postgres != nil {
		if err := testcontainers.TerminateContainer(b.postgres); err != nil {
			errs = append(errs, err)
		}
	}

	if b.redis != nil {
		if err := testcontainers.TerminateContainer(b.redis); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
