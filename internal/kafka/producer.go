package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer envía mensajes a un topic de forma asíncrona: Publish encola en un
// canal interno y una goroutine hace el write. El cierre tiene un solo dueño:
// Close (o la cancelación del contexto) le señala a la goroutine que termine,
// y solo la goroutine drena el inbox y cierra closeCh. Close es idempotente y
// puede combinarse con la cancelación del contexto sin carreras.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	quit    chan struct{}
	closeCh chan struct{}
	once    sync.Once
}

// NewProducer construye el producer para un topic. buf es el tamaño del canal
// interno de salida.
func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		quit:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Start arranca el loop de envío. Termina con ctx cancelado o con Close();
// en ambos casos drena lo pendiente del inbox antes de cerrar el writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case <-p.quit:
				p.drain()
				return
			case m := <-p.inbox:
				_ = p.w.WriteMessages(context.Background(), m)
			}
		}
	}()
}

// drain envía lo que quedó encolado y cierra el writer.
func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			_ = p.w.WriteMessages(context.Background(), m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

// Publish encola un mensaje. No bloquea más allá del buffer del inbox; con el
// producer ya cerrándose el mensaje se descarta.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
	case <-p.quit:
	}
}

// Close le señala a la goroutine de envío que drene y termine. Idempotente:
// llamadas repetidas o concurrentes con la cancelación del contexto no hacen
// nada adicional.
func (p *Producer) Close() {
	p.once.Do(func() { close(p.quit) })
}

// WaitClosed bloquea hasta que la goroutine de envío terminó.
func (p *Producer) WaitClosed() { <-p.closeCh }
