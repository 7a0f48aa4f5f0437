package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/application/orders"
	"github.com/tu-usuario/stock-ledger/internal/events"
	kafkax "github.com/tu-usuario/stock-ledger/internal/kafka"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/postgres"
	"github.com/tu-usuario/stock-ledger/internal/redisx"
	"github.com/tu-usuario/stock-ledger/pkg/config"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Worker de integración con órdenes: consume order.created / order.cancelled /
// order.shipped y ejecuta el protocolo de reserva contra el motor de stock.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando worker de órdenes")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rdb := redisx.New(cfg.Redis.Addr)
	defer rdb.Close()

	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Producers: reserved y rejected (dos topics distintos) más movimientos.
	pOK := kafkax.NewProducer(cfg.Kafka.Brokers, events.TopicStockReserved, 1024)
	pOK.Start(ctx)
	pRJ := kafkax.NewProducer(cfg.Kafka.Brokers, events.TopicStockRejected, 1024)
	pRJ.Start(ctx)
	pMov := kafkax.NewProducer(cfg.Kafka.Brokers, events.TopicStockMovement, 1024)
	pMov.Start(ctx)

	publisher := events.NewMovementPublisher(pMov, cfg.App.Name)
	stockUC := inventory.NewStockUseCase(txRunner, productRepo, warehouseRepo, publisher, log)

	svc := &orders.Service{
		UC:             stockUC,
		Dedup:          redisx.NewDedup(rdb, cfg.App.Name+"-worker"),
		ProducerOK:     pOK,
		ProducerReject: pRJ,
		ServiceName:    cfg.App.Name + "-worker",
		Log:            log,
	}

	consumers := []struct {
		topic   string
		handler kafkax.Handler
	}{
		{events.TopicOrderCreated, svc.HandleOrderCreated},
		{events.TopicOrderCancelled, svc.HandleOrderCancelled},
		{events.TopicOrderShipped, svc.HandleOrderShipped},
	}

	for _, c := range consumers {
		cons := kafkax.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, c.topic, cfg.Kafka.Workers)
		topic := c.topic
		handler := c.handler
		go func() {
			log.Info().
				Str("group", cfg.Kafka.ConsumerGroup).
				Str("topic", topic).
				Int("workers", cfg.Kafka.Workers).
				Msg("consumer iniciado")
			if err := cons.Start(ctx, handler); err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("consumer finalizado")
				cancel()
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info().Msg("señal de apagado recibida, cerrando worker...")
	case <-ctx.Done():
	}

	cancel()
	time.Sleep(500 * time.Millisecond)
	pOK.Close()
	pRJ.Close()
	pMov.Close()
	pOK.WaitClosed()
	pRJ.WaitClosed()
	pMov.WaitClosed()

	log.Info().Msg("worker detenido")
}
