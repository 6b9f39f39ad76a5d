package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/resto/internal/health"
	"github.com/vladislavdragonenkov/resto/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/resto/internal/notify"
	"github.com/vladislavdragonenkov/resto/internal/service/catalog"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/resto/internal/service/outbox"
	"github.com/vladislavdragonenkov/resto/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/resto/internal/version"
)

// Run собирает зависимости и запускает HTTP API, outbox worker и, при
// заданных брокерах, Kafka-консьюмер команд. Блокируется до отмены ctx
// или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	hub := notify.NewHub(0, logger.WithField("component", "notify"))

	lifecycleSvc := lifecycle.New(
		deps.orders, deps.tables, deps.catalog, deps.outbox,
		cfg.TenantID, logger.WithField("component", "lifecycle"),
	)
	catalogSvc := catalog.New(
		deps.catalog, deps.tables, deps.orders,
		logger.WithField("component", "catalog"),
	)

	// Kafka опционален: без брокеров события расходятся только по комнатам.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	publishers := []domain.OutboxPublisher{hub}
	workerOptions := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
	}
	if kafkaProducer != nil {
		publishers = append(publishers, kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents))
		workerOptions = append(workerOptions,
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)),
		)
	}

	worker := outbox.NewWorker(deps.outbox, notify.NewFanout(publishers...), workerOptions...)
	go worker.Run(ctx)

	consumer, err := startCommandConsumer(ctx, cfg, lifecycleSvc, kafkaProducer, logger)
	if err != nil {
		return err
	}
	if consumer != nil {
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.WithError(err).Warn("не удалось остановить kafka consumer")
			}
		}()
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.store.Ping(pingCtx)
		}))
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiServer := httpapi.NewServer(lifecycleSvc, catalogSvc, hub, logger.WithField("component", "httpapi"))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: apiServer.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startCommandConsumer подключает Kafka-консьюмер команд заказов, если
// настроены брокеры. Ошибочные сообщения после retry уходят в DLQ.
func startCommandConsumer(
	ctx context.Context,
	cfg Config,
	lifecycleSvc lifecycle.Service,
	producer *kafka.Producer,
	logger *log.Entry,
) (*kafka.Consumer, error) {
	if cfg.KafkaBrokers == "" || producer == nil {
		return nil, nil
	}

	handler := kafka.NewCommandHandler(lifecycleSvc, producer, logger.WithField("component", "command-handler"))
	consumer, err := kafka.NewConsumerWithDLQ(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.KafkaGroupID,
		[]string{kafka.TopicOrderCommands},
		handler.Handle,
		producer,
		3,
	)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("kafka consumer завершился с ошибкой")
		}
	}()

	logger.WithField("topic", kafka.TopicOrderCommands).Info("kafka consumer команд запущен")
	return consumer, nil
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
