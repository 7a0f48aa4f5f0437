package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/events"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

// Service conecta el subsistema de órdenes con el motor de stock: consume los
// eventos de órdenes, ejecuta el protocolo de reserva y publica el resultado.
// Dedup por event_id: un evento reentregado no se reprocesa, pero la marca de
// procesado se escribe recién cuando el caso de uso terminó. Una falla
// transitoria (DB caída, error de commit) deja el evento sin marcar y sin
// offset commiteado: la reentrega lo reintenta en vez de perder la orden.
type Service struct {
	UC             *inventory.StockUseCase
	Dedup          Deduper
	ProducerOK     Publisher // publica stock.reserved
	ProducerReject Publisher // publica stock.rejected
	ServiceName    string
	Log            *logger.Logger
}

// Publisher subconjunto del producer Kafka que usa el servicio.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Deduper registra qué eventos ya fueron procesados. Seen consulta; Mark
// escribe la marca, y debe llamarse solo después de que el procesamiento
// terminó (éxito o rechazo de negocio, nunca falla transitoria).
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// HandleOrderCreated procesa order.created: reserva todas las líneas
// (todo-o-nada) y publica stock.reserved o stock.rejected.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, events.EventOrderCreated)
	if err != nil || !ok {
		return err
	}
	var p events.OrderCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	lines := toOrderLines(p.Items)
	reserved, rejects, err := s.UC.ReserveOrder(ctx, p.OrderID, lines)
	if err != nil {
		// Falla transitoria: sin marcar, la reentrega reintenta.
		return err
	}
	if reserved {
		if err := s.publishReserved(p.OrderID, p.Items); err != nil {
			return err
		}
	} else {
		// Rechazo de negocio: también cuenta como procesado.
		if err := s.publishRejected(p.OrderID, rejects); err != nil {
			return err
		}
	}
	s.markProcessed(ctx, env.EventID)
	return nil
}

// HandleOrderCancelled procesa order.cancelled: libera las reservas.
func (s *Service) HandleOrderCancelled(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, events.EventOrderCancelled)
	if err != nil || !ok {
		return err
	}
	var p events.OrderCancelledPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}
	if err := s.UC.ReleaseOrder(ctx, p.OrderID, toOrderLines(p.Items)); err != nil {
		return err
	}
	s.markProcessed(ctx, env.EventID)
	return nil
}

// HandleOrderShipped procesa order.shipped: confirma el despacho de las
// líneas reservadas y deja los registros SALES_OUT en el libro.
func (s *Service) HandleOrderShipped(ctx context.Context, m kafkago.Message) error {
	env, ok, err := s.decode(ctx, m, events.EventOrderShipped)
	if err != nil || !ok {
		return err
	}
	var p events.OrderShippedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}
	if err := s.UC.ConfirmOrderShipment(ctx, p.OrderID, p.OperatorID, toOrderLines(p.Items)); err != nil {
		return err
	}
	s.markProcessed(ctx, env.EventID)
	return nil
}

// decode valida tipo de evento y consulta el dedup por event_id. Solo lee la
// marca; escribirla es responsabilidad del handler al terminar.
// ok=false significa "ignorar sin error" (tipo ajeno o duplicado).
func (s *Service) decode(ctx context.Context, m kafkago.Message, wantType string) (*events.Envelope, bool, error) {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return nil, false, err
	}
	if env.EventType != wantType {
		return nil, false, nil
	}
	seen, _ := s.Dedup.Seen(ctx, env.EventID)
	if seen {
		if s.Log != nil {
			s.Log.Debug().Str("event_id", env.EventID).Msg("evento duplicado, ignorado")
		}
		return nil, false, nil
	}
	return &env, true, nil
}

// markProcessed escribe la marca de dedup. Best-effort: si la escritura falla
// no se retorna error (retornarlo reentregaría un evento ya aplicado y
// duplicaría la reserva).
func (s *Service) markProcessed(ctx context.Context, eventID string) {
	if err := s.Dedup.Mark(ctx, eventID); err != nil && s.Log != nil {
		s.Log.Warn().Err(err).Str("event_id", eventID).Msg("no se pudo marcar el evento como procesado")
	}
}

func (s *Service) publishReserved(orderID string, items []events.OrderLineItem) error {
	payload, err := json.Marshal(events.StockReservedPayload{OrderID: orderID, Items: items})
	if err != nil {
		return err
	}
	return s.publish(s.ProducerOK, events.EventStockReserved, orderID, payload)
}

func (s *Service) publishRejected(orderID string, rejects []inventory.RejectedLine) error {
	details := make([]events.StockRejectedDetail, 0, len(rejects))
	for _, r := range rejects {
		details = append(details, events.StockRejectedDetail{
			ProductID:   r.ProductID,
			WarehouseID: r.WarehouseID,
			Required:    r.Required,
			Available:   r.Available,
		})
	}
	payload, err := json.Marshal(events.StockRejectedPayload{
		OrderID: orderID,
		Reason:  "INSUFFICIENT_STOCK",
		Details: details,
	})
	if err != nil {
		return err
	}
	return s.publish(s.ProducerReject, events.EventStockRejected, orderID, payload)
}

func (s *Service) publish(producer Publisher, eventType, orderID string, payload json.RawMessage) error {
	env := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	producer.Publish(events.PartitionKey(orderID), value)
	return nil
}

func toOrderLines(items []events.OrderLineItem) []inventory.OrderLine {
	lines := make([]inventory.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, inventory.OrderLine{
			ProductID:   it.ProductID,
			WarehouseID: it.WarehouseID,
			Quantity:    it.Qty,
		})
	}
	return lines
}
