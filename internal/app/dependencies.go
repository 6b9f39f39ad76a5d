package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/storage/memory"
	"github.com/vladislavdragonenkov/resto/internal/storage/postgres"
)

// runtimeDependencies содержит репозитории, выбранные по конфигурации.
type runtimeDependencies struct {
	orders  domain.OrderRepository
	tables  domain.TableRepository
	catalog domain.CatalogRepository
	outbox  domain.OutboxRepository
	store   *postgres.Store
}

// initRuntimeDependencies создаёт репозитории поверх выбранного хранилища.
// Для postgres обязательна DSN; при включённой автомиграции схема
// накатывается на старте.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("используется in-memory хранилище")
		return &runtimeDependencies{
			orders:  memory.NewOrderRepository(),
			tables:  memory.NewTableRepository(),
			catalog: memory.NewCatalogRepository(),
			outbox:  memory.NewOutboxRepository(),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("ensure postgres schema: %w", err)
			}
		}
		logger.Info("используется postgres хранилище")
		return &runtimeDependencies{
			orders:  postgres.NewOrderRepository(store),
			tables:  postgres.NewTableRepository(store),
			catalog: postgres.NewCatalogRepository(store),
			outbox:  postgres.NewOutboxRepository(store),
			store:   store,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// close освобождает ресурсы хранилища.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.WithError(err).Warn("не удалось закрыть подключение к postgres")
	}
}
