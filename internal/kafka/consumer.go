package kafka

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Handler debe retornar nil solo si el proceso fue exitoso y se puede
// commitear el offset.
type Handler func(ctx context.Context, m kafka.Message) error

// Consumer lee de un topic con group id y reparte los mensajes a un pool de
// workers. Commit manual por mensaje, solo en éxito.
type Consumer struct {
	r       *kafka.Reader
	workers int
}

// NewConsumer construye el consumer de un topic para un consumer group.
func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit manual
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start consume hasta que ctx se cancele. Un error del handler no commitea el
// offset (el mensaje se reprocesa); el dedup es responsabilidad del handler.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	errs := make(chan error, c.workers)

	// Con varios workers los commits no respetan el orden de fetch: si un
	// mensaje falla mientras otro worker commitea un offset posterior de la
	// misma partición, el fallido puede quedar atrás del offset commiteado y
	// no reentregarse. El sistema lo tolera porque los handlers son
	// idempotentes y el estado vive en la DB, pero un handler que necesite
	// reentrega garantizada debe correr con workers=1.
	for i := 0; i < c.workers; i++ {
		go func() {
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					errs <- err
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					errs <- err
				}
			}
		}()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			close(jobs)
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}

		// Drenaje no bloqueante de errores para no interbloquear el dispatcher.
		select {
		case e := <-errs:
			log.Warn().Err(e).Msg("kafka worker error")
			time.Sleep(200 * time.Millisecond)
		default:
		}
	}
}
