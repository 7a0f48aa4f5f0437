package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/application/orders"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
	"github.com/tu-usuario/stock-ledger/internal/events"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
//
// ledgerStore emula la base con un mapa de filas de stock; ledgerTxRunner
// serializa las transacciones con un mutex y restaura un snapshot ante error.
// failNext simula una falla transitoria (caída de DB) en la próxima
// transacción, para ejercitar la reentrega.
// ──────────────────────────────────────────────────────────────────────────────

var errDBDown = errors.New("conexión perdida")

type ledgerStore struct {
	mu       sync.Mutex
	stocks   map[string]entity.Stock
	failNext bool
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{stocks: map[string]entity.Stock{}}
}

func (s *ledgerStore) seed(productID, warehouseID string, quantity, reserved int64) {
	s.stocks[productID+"/"+warehouseID] = entity.Stock{
		ProductID: productID, WarehouseID: warehouseID,
		Quantity: quantity, ReservedQuantity: reserved,
	}
}

func (s *ledgerStore) stock(productID, warehouseID string) entity.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stocks[productID+"/"+warehouseID]
}

type ledgerStockRepo struct{ st *ledgerStore }

func (r *ledgerStockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	row, ok := r.st.stocks[productID+"/"+warehouseID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copia := row
	return &copia, nil
}

func (r *ledgerStockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	return r.Get(productID, warehouseID)
}

func (r *ledgerStockRepo) GetOrCreateForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	key := productID + "/" + warehouseID
	if _, ok := r.st.stocks[key]; !ok {
		r.st.stocks[key] = entity.Stock{ProductID: productID, WarehouseID: warehouseID}
	}
	return r.Get(productID, warehouseID)
}

func (r *ledgerStockRepo) Update(stock *entity.Stock) error {
	r.st.stocks[stock.ProductID+"/"+stock.WarehouseID] = *stock
	return nil
}

type noopMovementRepo struct{}

func (noopMovementRepo) Create(*entity.StockMovement) error { return nil }
func (noopMovementRepo) GetByID(string) (*entity.StockMovement, error) {
	return nil, domain.ErrNotFound
}
func (noopMovementRepo) ListByProduct(string, *time.Time, *time.Time, int, int) ([]*entity.StockMovement, error) {
	return nil, nil
}
func (noopMovementRepo) ListByWarehouse(string, *time.Time, *time.Time, int, int) ([]*entity.StockMovement, error) {
	return nil, nil
}
func (noopMovementRepo) ListByKey(string, string) ([]*entity.StockMovement, error) {
	return nil, nil
}

type noopProductRepo struct{}

func (noopProductRepo) GetByID(string) (*entity.Product, error)  { return nil, nil }
func (noopProductRepo) List(int, int) ([]*entity.Product, error) { return nil, nil }

type noopWarehouseRepo struct{}

func (noopWarehouseRepo) GetByID(string) (*entity.Warehouse, error)  { return nil, nil }
func (noopWarehouseRepo) List(int, int) ([]*entity.Warehouse, error) { return nil, nil }

type ledgerTxRunner struct{ st *ledgerStore }

func (t *ledgerTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	if t.st.failNext {
		t.st.failNext = false
		return errDBDown
	}

	snapshot := make(map[string]entity.Stock, len(t.st.stocks))
	for k, v := range t.st.stocks {
		snapshot[k] = v
	}
	err := fn(noopMovementRepo{}, &ledgerStockRepo{t.st}, noopProductRepo{})
	if err != nil {
		t.st.stocks = snapshot
	}
	return err
}

// fakeDedup marca eventos en memoria.
type fakeDedup struct {
	mu    sync.Mutex
	seen  map[string]bool
	marks int
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: map[string]bool{}} }

func (d *fakeDedup) Seen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID], nil
}

func (d *fakeDedup) Mark(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = true
	d.marks++
	return nil
}

// capturePublisher acumula los mensajes publicados.
type capturePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *capturePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, value)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

const (
	testProduct   = "PROD-1"
	testWarehouse = "BOD-1"
	testOrderID   = "ORD-100"
	testEventID   = "evt-100"
)

type testHarness struct {
	st    *ledgerStore
	dedup *fakeDedup
	pubOK *capturePublisher
	pubRJ *capturePublisher
	svc   *orders.Service
}

func newTestService() *testHarness {
	st := newLedgerStore()
	uc := inventory.NewStockUseCase(
		&ledgerTxRunner{st}, noopProductRepo{}, noopWarehouseRepo{}, nil, nil,
	)
	h := &testHarness{
		st:    st,
		dedup: newFakeDedup(),
		pubOK: &capturePublisher{},
		pubRJ: &capturePublisher{},
	}
	h.svc = &orders.Service{
		UC:             uc,
		Dedup:          h.dedup,
		ProducerOK:     h.pubOK,
		ProducerReject: h.pubRJ,
		ServiceName:    "stock-ledger-worker",
	}
	return h
}

func orderCreatedMessage(t *testing.T, eventID string, qty int64) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(events.OrderCreatedPayload{
		OrderID: testOrderID,
		Items: []events.OrderLineItem{
			{ProductID: testProduct, WarehouseID: testWarehouse, Qty: qty},
		},
	})
	require.NoError(t, err)
	value, err := json.Marshal(events.Envelope{
		EventID:      eventID,
		EventType:    events.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "orders-svc",
		Payload:      payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(testOrderID), Value: value}
}

// ──────────────────────────────────────────────────────────────────────────────
// Dedup: la marca se escribe recién al terminar el procesamiento
// ──────────────────────────────────────────────────────────────────────────────

func TestHandleOrderCreated_ReservaYMarcaProcesado(t *testing.T) {
	h := newTestService()
	h.st.seed(testProduct, testWarehouse, 20, 0)

	err := h.svc.HandleOrderCreated(context.Background(), orderCreatedMessage(t, testEventID, 5))
	require.NoError(t, err)

	assert.Equal(t, int64(5), h.st.stock(testProduct, testWarehouse).ReservedQuantity)
	assert.Equal(t, 1, h.pubOK.count())
	assert.Equal(t, 0, h.pubRJ.count())

	seen, _ := h.dedup.Seen(context.Background(), testEventID)
	assert.True(t, seen, "el evento procesado debe quedar marcado")
}

func TestHandleOrderCreated_DuplicadoNoSeReprocesa(t *testing.T) {
	h := newTestService()
	h.st.seed(testProduct, testWarehouse, 20, 0)
	msg := orderCreatedMessage(t, testEventID, 5)

	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), msg))
	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), msg))

	assert.Equal(t, int64(5), h.st.stock(testProduct, testWarehouse).ReservedQuantity,
		"la reentrega de un evento ya procesado no debe reservar de nuevo")
	assert.Equal(t, 1, h.pubOK.count(), "un solo stock.reserved por evento")
}

func TestHandleOrderCreated_FallaTransitoriaNoMarca(t *testing.T) {
	h := newTestService()
	h.st.seed(testProduct, testWarehouse, 20, 0)
	h.st.failNext = true
	msg := orderCreatedMessage(t, testEventID, 5)

	err := h.svc.HandleOrderCreated(context.Background(), msg)
	require.ErrorIs(t, err, errDBDown)

	seen, _ := h.dedup.Seen(context.Background(), testEventID)
	assert.False(t, seen,
		"una falla transitoria no debe marcar el evento: la reentrega tiene que reintentarlo")
	assert.Equal(t, 0, h.pubOK.count())
	assert.Equal(t, 0, h.pubRJ.count())

	// Reentrega: la DB volvió, el mismo evento se procesa completo.
	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), msg))
	assert.Equal(t, int64(5), h.st.stock(testProduct, testWarehouse).ReservedQuantity)
	assert.Equal(t, 1, h.pubOK.count())
}

func TestHandleOrderCreated_RechazoDeNegocioTambienMarca(t *testing.T) {
	h := newTestService()
	h.st.seed(testProduct, testWarehouse, 3, 0)
	msg := orderCreatedMessage(t, testEventID, 5)

	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), msg))

	assert.Equal(t, 0, h.pubOK.count())
	assert.Equal(t, 1, h.pubRJ.count())

	var env events.Envelope
	require.NoError(t, json.Unmarshal(h.pubRJ.msgs[0], &env))
	assert.Equal(t, events.EventStockRejected, env.EventType)

	seen, _ := h.dedup.Seen(context.Background(), testEventID)
	assert.True(t, seen, "el rechazo de negocio es un resultado final: el evento queda marcado")

	// La reentrega del mismo evento no publica un segundo rechazo.
	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), msg))
	assert.Equal(t, 1, h.pubRJ.count())
}

func TestHandleOrderCancelled_LiberaYMarca(t *testing.T) {
	h := newTestService()
	h.st.seed(testProduct, testWarehouse, 20, 5)

	payload, err := json.Marshal(events.OrderCancelledPayload{
		OrderID: testOrderID,
		Items: []events.OrderLineItem{
			{ProductID: testProduct, WarehouseID: testWarehouse, Qty: 5},
		},
	})
	require.NoError(t, err)
	value, err := json.Marshal(events.Envelope{
		EventID:   testEventID,
		EventType: events.EventOrderCancelled,
		Payload:   payload,
	})
	require.NoError(t, err)

	err = h.svc.HandleOrderCancelled(context.Background(), kafkago.Message{Value: value})
	require.NoError(t, err)

	assert.Equal(t, int64(0), h.st.stock(testProduct, testWarehouse).ReservedQuantity)
	seen, _ := h.dedup.Seen(context.Background(), testEventID)
	assert.True(t, seen)
}

func TestHandle_TipoDeEventoAjenoSeIgnora(t *testing.T) {
	h := newTestService()

	value, err := json.Marshal(events.Envelope{
		EventID:   testEventID,
		EventType: events.EventOrderShipped, // llega al handler de created
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: value}))

	seen, _ := h.dedup.Seen(context.Background(), testEventID)
	assert.False(t, seen, "un tipo ajeno se ignora sin marcar")
}
