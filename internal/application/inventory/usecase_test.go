package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stock-ledger/internal/application/inventory"
	"github.com/tu-usuario/stock-ledger/internal/domain"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
	"github.com/tu-usuario/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
//
// memStore emula la base: un mapa de filas de stock y un slice append-only de
// movimientos. memTxRunner serializa las "transacciones" con un mutex (como lo
// haría el lock de fila en Postgres) y restaura un snapshot ante error, para
// que los tests de rollback ejerciten la semántica todo-o-nada real.
// ──────────────────────────────────────────────────────────────────────────────

func stockKey(productID, warehouseID string) string {
	return productID + "/" + warehouseID
}

type memStore struct {
	mu     sync.Mutex
	stocks map[string]entity.Stock
	movs   []*entity.StockMovement
}

func newMemStore() *memStore {
	return &memStore{stocks: map[string]entity.Stock{}}
}

func (s *memStore) seed(productID, warehouseID string, quantity, reserved int64) {
	s.stocks[stockKey(productID, warehouseID)] = entity.Stock{
		ProductID: productID, WarehouseID: warehouseID,
		Quantity: quantity, ReservedQuantity: reserved,
	}
}

func (s *memStore) stock(productID, warehouseID string) entity.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stocks[stockKey(productID, warehouseID)]
}

type memStockRepo struct{ st *memStore }

func (r *memStockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	row, ok := r.st.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copia := row
	return &copia, nil
}

func (r *memStockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	return r.Get(productID, warehouseID)
}

func (r *memStockRepo) GetOrCreateForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	key := stockKey(productID, warehouseID)
	if _, ok := r.st.stocks[key]; !ok {
		r.st.stocks[key] = entity.Stock{ProductID: productID, WarehouseID: warehouseID}
	}
	return r.Get(productID, warehouseID)
}

func (r *memStockRepo) Update(stock *entity.Stock) error {
	r.st.stocks[stockKey(stock.ProductID, stock.WarehouseID)] = *stock
	return nil
}

type memMovementRepo struct{ st *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	r.st.movs = append(r.st.movs, m)
	return nil
}

func (r *memMovementRepo) GetByID(string) (*entity.StockMovement, error) {
	return nil, domain.ErrNotFound
}

func (r *memMovementRepo) ListByProduct(string, *time.Time, *time.Time, int, int) ([]*entity.StockMovement, error) {
	return nil, nil
}

func (r *memMovementRepo) ListByWarehouse(string, *time.Time, *time.Time, int, int) ([]*entity.StockMovement, error) {
	return nil, nil
}

func (r *memMovementRepo) ListByKey(productID, warehouseID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.st.movs {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memProductRepo struct{ ids map[string]bool }

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	if !r.ids[id] {
		return nil, nil
	}
	return &entity.Product{ID: id, SKU: "SKU-" + id}, nil
}

func (r *memProductRepo) List(int, int) ([]*entity.Product, error) { return nil, nil }

type memWarehouseRepo struct{ ids map[string]bool }

func (r *memWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	if !r.ids[id] {
		return nil, nil
	}
	return &entity.Warehouse{ID: id, Name: "Bodega " + id}, nil
}

func (r *memWarehouseRepo) List(int, int) ([]*entity.Warehouse, error) { return nil, nil }

// memTxRunner serializa las transacciones y restaura el snapshot ante error.
type memTxRunner struct{ st *memStore }

func (t *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	// Snapshot para rollback
	snapshot := make(map[string]entity.Stock, len(t.st.stocks))
	for k, v := range t.st.stocks {
		snapshot[k] = v
	}
	movLen := len(t.st.movs)

	err := fn(&memMovementRepo{t.st}, &memStockRepo{t.st}, &memProductRepo{ids: map[string]bool{}})
	if err != nil {
		t.st.stocks = snapshot
		t.st.movs = t.st.movs[:movLen]
	}
	return err
}

type memPublisher struct {
	mu        sync.Mutex
	published []*entity.StockMovement
}

func (p *memPublisher) PublishMovement(_ context.Context, m *entity.StockMovement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, m)
}

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

const (
	testProduct   = "PROD-1"
	testWarehouse = "BOD-1"
	testOperator  = "user-1"
)

func newTestUseCase(st *memStore, pub inventory.MovementPublisher) *inventory.StockUseCase {
	products := &memProductRepo{ids: map[string]bool{testProduct: true, "PROD-2": true}}
	warehouses := &memWarehouseRepo{ids: map[string]bool{testWarehouse: true, "BOD-2": true}}
	return inventory.NewStockUseCase(&memTxRunner{st}, products, warehouses, pub, nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterInbound / RegisterOutbound
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterInbound_CreaFilaYRegistroDelLibro(t *testing.T) {
	st := newMemStore()
	pub := &memPublisher{}
	uc := newTestUseCase(st, pub)

	// Primer movimiento del par: la fila se crea en cero bajo el mismo lock.
	mov, err := uc.RegisterInbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementPurchaseIn, Quantity: 50,
		ReferenceNo: "OC-001", OperatorID: testOperator,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), mov.BeforeQuantity)
	assert.Equal(t, int64(50), mov.AfterQuantity)
	assert.Equal(t, entity.MovementPurchaseIn, mov.Type)
	assert.Equal(t, "OC-001", mov.ReferenceNo)

	row := st.stock(testProduct, testWarehouse)
	assert.Equal(t, int64(50), row.Quantity)
	assert.Equal(t, 1, pub.count(), "el movimiento commiteado debe publicarse")
}

func TestRegisterInbound_RechazaTipoDeOtroFlujo(t *testing.T) {
	uc := newTestUseCase(newMemStore(), nil)

	// Los ajustes y traslados tienen flujo propio; aquí se rechazan de entrada.
	_, err := uc.RegisterInbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementAdjustIn, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.RegisterInbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementSalesOut, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una salida no puede entrar por el path de entradas")
}

func TestRegisterInbound_ProductoInexistente(t *testing.T) {
	uc := newTestUseCase(newMemStore(), nil)

	_, err := uc.RegisterInbound(context.Background(), inventory.MovementInput{
		ProductID: "PROD-FANTASMA", WarehouseID: testWarehouse,
		Type: entity.MovementPurchaseIn, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterOutbound_SinFilaPrevia(t *testing.T) {
	uc := newTestUseCase(newMemStore(), nil)

	_, err := uc.RegisterOutbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementSalesOut, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound,
		"una salida sobre un par sin historial debe rechazarse, no crear fila")
}

func TestRegisterOutbound_InsuficienteNoDejaRastro(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 3, 0)
	pub := &memPublisher{}
	uc := newTestUseCase(st, pub)

	_, err := uc.RegisterOutbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementSalesOut, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	row := st.stock(testProduct, testWarehouse)
	assert.Equal(t, int64(3), row.Quantity, "el rechazo no debe aplicar salida parcial")
	assert.Empty(t, st.movs, "un rechazo no deja registro en el libro")
	assert.Equal(t, 0, pub.count())
}

func TestRegisterOutbound_EncadenaBeforeAfter(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 100, 0)
	uc := newTestUseCase(st, nil)

	mov1, err := uc.RegisterOutbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementSalesOut, Quantity: 30, ReferenceNo: "ORD-1",
	})
	require.NoError(t, err)
	mov2, err := uc.RegisterOutbound(context.Background(), inventory.MovementInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Type: entity.MovementReturnOut, Quantity: 10, ReferenceNo: "DEV-1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), mov1.BeforeQuantity)
	assert.Equal(t, int64(70), mov1.AfterQuantity)
	assert.Equal(t, int64(70), mov2.BeforeQuantity,
		"el before del siguiente movimiento debe ser el after del anterior")
	assert.Equal(t, int64(60), mov2.AfterQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserva / liberación / despacho
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_NoGeneraRegistroEnElLibro(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 20, 0)
	uc := newTestUseCase(st, nil)

	require.NoError(t, uc.Reserve(context.Background(), inventory.ReservationInput{
		ProductID: testProduct, WarehouseID: testWarehouse, Quantity: 8,
	}))

	row := st.stock(testProduct, testWarehouse)
	assert.Equal(t, int64(20), row.Quantity, "reservar no toca la cantidad en mano")
	assert.Equal(t, int64(8), row.ReservedQuantity)
	assert.Empty(t, st.movs, "las reservas no cambian el en mano: no entran al libro")
}

func TestConfirmShipment_RegistraSalesOut(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 20, 8)
	pub := &memPublisher{}
	uc := newTestUseCase(st, pub)

	mov, err := uc.ConfirmShipment(context.Background(), inventory.ReservationInput{
		ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: 8, ReferenceNo: "ORD-77", OperatorID: testOperator,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.MovementSalesOut, mov.Type)
	assert.Equal(t, int64(20), mov.BeforeQuantity)
	assert.Equal(t, int64(12), mov.AfterQuantity)
	assert.Equal(t, "ORD-77", mov.ReferenceNo)

	row := st.stock(testProduct, testWarehouse)
	assert.Equal(t, int64(12), row.Quantity)
	assert.Equal(t, int64(0), row.ReservedQuantity)
	assert.Equal(t, 1, pub.count())
}

func TestConfirmShipment_ReservaInconsistente(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 20, 3)
	uc := newTestUseCase(st, nil)

	_, err := uc.ConfirmShipment(context.Background(), inventory.ReservationInput{
		ProductID: testProduct, WarehouseID: testWarehouse, Quantity: 8,
	})
	assert.ErrorIs(t, err, domain.ErrReservationMismatch)
	assert.Empty(t, st.movs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia: sin sobreventa
// ──────────────────────────────────────────────────────────────────────────────

// Con 10 disponibles y 10 reservas concurrentes de 3 unidades, exactamente 3
// deben tener éxito: la serialización por lock impide leer cantidades viejas.
func TestReserve_ConcurrenteSinSobreventa(t *testing.T) {
	st := newMemStore()
	st.seed(testProduct, testWarehouse, 10, 0)
	uc := newTestUseCase(st, nil)

	const intentos = 10
	results := make(chan error, intentos)

	var wg sync.WaitGroup
	for i := 0; i < intentos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- uc.Reserve(context.Background(), inventory.ReservationInput{
				ProductID: testProduct, WarehouseID: testWarehouse, Quantity: 3,
			})
		}()
	}
	wg.Wait()
	close(results)

	var exitos, rechazos int
	for err := range results {
		switch {
		case err == nil:
			exitos++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			rechazos++
		}
	}

	assert.Equal(t, 3, exitos, "solo caben 3 reservas de 3 en 10 disponibles")
	assert.Equal(t, 7, rechazos)

	row := st.stock(testProduct, testWarehouse)
	assert.Equal(t, int64(9), row.ReservedQuantity)
	assert.Equal(t, int64(10), row.Quantity)
}
