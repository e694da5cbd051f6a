package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/traceability"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/lock"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-lotes/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-lotes/pkg/jwt"
)

type apiFixture struct {
	app    *fiber.App
	locker *lock.MemoryLocker
}

func newAPI(t *testing.T, opts ...inventory.Option) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	locker := lock.NewMemoryLocker()
	opts = append([]inventory.Option{inventory.WithLockTimeout(30 * time.Millisecond)}, opts...)
	engine := inventory.NewAllocationEngine(store, locker, opts...)
	reporter := traceability.NewReporter(store)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Engine: engine, Reporter: reporter, JWTSecret: testJWTSecret})
	return &apiFixture{app: app, locker: locker}
}

// call lanza la petición con el rol indicado y decodifica el cuerpo JSON.
func (f *apiFixture) call(t *testing.T, method, path, role string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "respuesta sin data: %v", body)
	return d
}

func (f *apiFixture) seedStock(t *testing.T) string {
	t.Helper()
	status, body := f.call(t, http.MethodPost, "/api/stocks", "admin", map[string]interface{}{
		"product_id": "leche-1L", "location_id": "bodega-1", "location_name": "Bodega Central",
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := data(t, body)["id"].(string)

	for _, b := range []map[string]interface{}{
		{"batch_number": "L-MARZO", "quantity": 100, "cost": 10, "expiration_date": time.Now().AddDate(0, 3, 0)},
		{"batch_number": "L-ENERO", "quantity": 50, "cost": 10, "expiration_date": time.Now().AddDate(0, 1, 0)},
	} {
		status, body = f.call(t, http.MethodPost, "/api/stocks/"+id+"/batches", "bodeguero", b)
		require.Equal(t, http.StatusCreated, status, body)
	}
	return id
}

func TestFlujoReservaConsumoTrazabilidad(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)

	status, body := f.call(t, http.MethodPost, "/api/stocks/"+id+"/reservations", "vendedor", map[string]interface{}{
		"quantity": 80, "order_id": "ORD-1", "prefer_fefo": true,
	})
	require.Equal(t, http.StatusCreated, status, body)
	res := data(t, body)
	assert.Equal(t, "FEFO", res["policy"])
	allocs := res["allocations"].([]interface{})
	require.Len(t, allocs, 2)
	assert.Equal(t, "L-ENERO", allocs[0].(map[string]interface{})["batch_number"])
	assert.Equal(t, "50", allocs[0].(map[string]interface{})["quantity"])
	assert.Equal(t, "30", allocs[1].(map[string]interface{})["quantity"])
	assert.NotEmpty(t, body["completed_at"])

	// vendedor reserva pero no consume
	status, _ = f.call(t, http.MethodPost, "/api/stocks/"+id+"/batches/L-ENERO/consume", "vendedor", map[string]interface{}{"quantity": 10})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = f.call(t, http.MethodPost, "/api/stocks/"+id+"/batches/L-ENERO/consume", "bodeguero", map[string]interface{}{
		"quantity": 50, "order_id": "ORD-1",
	})
	require.Equal(t, http.StatusOK, status, body)
	op := data(t, body)
	assert.Equal(t, "DEPLETED", op["batch"].(map[string]interface{})["status"])
	assert.Equal(t, "CONSUMED", op["movement"].(map[string]interface{})["movement_type"])
	assert.Equal(t, testUserID, op["movement"].(map[string]interface{})["created_by"])

	status, body = f.call(t, http.MethodGet, "/api/batches/L-ENERO/traceability", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	report := data(t, body)
	assert.Len(t, report["movements"], 3)
	assert.Equal(t, "200", report["utilization_percentage"], "reservado + consumido sobre la entrada")

	status, body = f.call(t, http.MethodGet, "/api/movements?stock_id="+id+"&type=RESERVED", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	page := data(t, body)["page"].(map[string]interface{})
	assert.EqualValues(t, 2, page["total"])

	status, body = f.call(t, http.MethodGet, "/api/stocks/"+id, "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	stock := data(t, body)
	assert.Equal(t, "100", stock["total_quantity"])
	assert.Equal(t, "70", stock["available_quantity"])
	assert.Equal(t, "30", stock["reserved_quantity"])
}

func TestErroresDeDominioComoHTTP(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)
	reserve := "/api/stocks/" + id + "/reservations"

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   interface{}
		status int
		code   string
	}{
		{"sin order_id", http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": 1}, 400, "MISSING_CORRELATION"},
		{"cantidad cero", http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": 0, "order_id": "O"}, 400, "INVALID_QUANTITY"},
		{"cantidad ilegible", http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": "abc", "order_id": "O"}, 400, "INVALID_QUANTITY"},
		{"cantidad booleana al consumir", http.MethodPost, "/api/stocks/" + id + "/batches/L-MARZO/consume", "bodeguero", map[string]interface{}{"quantity": true}, 400, "INVALID_QUANTITY"},
		{"cantidad ilegible en alta de lote", http.MethodPost, "/api/stocks/" + id + "/batches", "bodeguero", map[string]interface{}{"batch_number": "X", "quantity": "diez"}, 400, "INVALID_QUANTITY"},
		{"más de cuatro decimales", http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": "0.00001", "order_id": "O"}, 400, "INVALID_QUANTITY"},
		{"más que el disponible", http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": 1000, "order_id": "O"}, 400, "INSUFFICIENT_STOCK"},
		{"stock inexistente", http.MethodPost, "/api/stocks/nope/reservations", "vendedor", map[string]interface{}{"quantity": 1, "order_id": "O"}, 404, "NOT_FOUND"},
		{"consumo sin reserva", http.MethodPost, "/api/stocks/" + id + "/batches/L-MARZO/consume", "bodeguero", map[string]interface{}{"quantity": 1}, 400, "INSUFFICIENT_RESERVED_STOCK"},
		{"stock duplicado", http.MethodPost, "/api/stocks", "admin", map[string]interface{}{"product_id": "leche-1L", "location_id": "bodega-1"}, 409, "CONFLICT"},
		{"lote duplicado", http.MethodPost, "/api/stocks/" + id + "/batches", "bodeguero", map[string]interface{}{"batch_number": "L-MARZO", "quantity": 1}, 409, "CONFLICT"},
		{"baja de lote vigente", http.MethodPost, "/api/stocks/" + id + "/batches/L-MARZO/expire", "bodeguero", nil, 409, "CONFLICT"},
		{"liberar sin reserva", http.MethodPost, "/api/stocks/" + id + "/batches/L-MARZO/release", "vendedor", map[string]interface{}{"quantity": 1}, 500, "INVARIANT_VIOLATION"},
		{"días negativos", http.MethodGet, "/api/batches/expiring?days=-1", "vendedor", nil, 400, "INVALID_INPUT"},
		{"días no numéricos", http.MethodGet, "/api/batches/expiring?days=abc", "vendedor", nil, 400, "INVALID_INPUT"},
		{"tipo de movimiento desconocido", http.MethodGet, "/api/movements?type=ROBO", "vendedor", nil, 400, "INVALID_INPUT"},
		{"pdf sin renderer", http.MethodGet, "/api/batches/L-MARZO/traceability.pdf", "vendedor", nil, 409, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.call(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, false, body["retryable"])
		})
	}

	// El error trae los identificadores afectados.
	_, body := f.call(t, http.MethodPost, reserve, "vendedor", map[string]interface{}{"quantity": 1000, "order_id": "ORD-9"})
	assert.Equal(t, id, body["stock_id"])
	assert.Equal(t, "ORD-9", body["order_id"])
}

func TestStockOcupadoEsReintentable(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)

	unlock, err := f.locker.Lock(context.Background(), id)
	require.NoError(t, err)
	defer unlock()

	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "vendedor", testIssuer, testExpMin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/stocks/"+id+"/reservations",
		bytes.NewBufferString(`{"quantity": 1, "order_id": "ORD-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "BUSY", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestCuerpoInvalido(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		raw  string
	}{
		{"json truncado", "/api/stocks", `{"product_id": `},
		{"cantidad válida, order_id no texto", "/api/stocks/" + id + "/reservations", `{"quantity": 1, "order_id": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.raw))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)
			resp, err := f.app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "INVALID_BODY", body["code"])
		})
	}
}

func TestRutasRequierenToken(t *testing.T) {
	f := newAPI(t)
	for _, path := range []string{"/api/stocks", "/api/movements", "/api/batches/expiring", "/api/stocks/replenishment"} {
		resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestStockInactivoNoAdmiteReservas(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)

	status, _ := f.call(t, http.MethodDelete, "/api/stocks/"+id, "bodeguero", nil)
	assert.Equal(t, http.StatusForbidden, status, "solo admin desactiva")

	status, body := f.call(t, http.MethodDelete, "/api/stocks/"+id, "admin", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, data(t, body)["is_active"])

	status, body = f.call(t, http.MethodPost, "/api/stocks/"+id+"/reservations", "vendedor", map[string]interface{}{"quantity": 1, "order_id": "O"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, body = f.call(t, http.MethodGet, "/api/stocks?active_only=true", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestListadosYReposicion(t *testing.T) {
	f := newAPI(t)
	id := f.seedStock(t)

	status, body := f.call(t, http.MethodPut, "/api/stocks/"+id+"/levels", "admin", map[string]interface{}{
		"minimum_level": 10, "maximum_level": 500, "reorder_point": 200,
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = f.call(t, http.MethodGet, "/api/stocks/"+id+"/batches", "vendedor", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "L-MARZO", list[0].(map[string]interface{})["batch_number"], "orden de ingreso")

	status, body = f.call(t, http.MethodGet, "/api/stocks/replenishment", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	sugg := body["data"].([]interface{})
	require.Len(t, sugg, 1)
	assert.Equal(t, "350", sugg[0].(map[string]interface{})["suggested_order_qty"])
	assert.EqualValues(t, 1, sugg[0].(map[string]interface{})["priority"])

	status, body = f.call(t, http.MethodGet, "/api/stocks/"+id+"/traceability", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, data(t, body)["below_reorder_point"])

	status, body = f.call(t, http.MethodGet, "/api/batches/expiring?days=45", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	exp := data(t, body)
	assert.Len(t, exp["batches"], 1)
	assert.EqualValues(t, 45, exp["days"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, 404},
		{domain.ErrInvalidInput, 400},
		{domain.ErrInvalidQuantity, 400},
		{domain.ErrMissingCorrelation, 400},
		{domain.ErrInsufficientStock, 400},
		{domain.ErrInsufficientReservedStock, 400},
		{domain.ErrConflict, 409},
		{domain.ErrBusy, 503},
		{domain.ErrInvariantViolation, 500},
		{fmt.Errorf("envuelto: %w", domain.ErrBusy), 503},
		{errors.New("otra cosa"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, apphttp.StatusFor(tt.err), tt.err.Error())
	}
}

func TestListBatches_UsaElEstadoDelMotor(t *testing.T) {
	// El reloj del motor va un año atrasado: el lote que vence en 10 días reales es NORMAL para él.
	engineNow := time.Now().AddDate(-1, 0, 0)
	f := newAPI(t, inventory.WithClock(func() time.Time { return engineNow }))

	status, body := f.call(t, http.MethodPost, "/api/stocks", "admin", map[string]interface{}{
		"product_id": "yogur", "location_id": "bodega-1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := data(t, body)["id"].(string)
	status, body = f.call(t, http.MethodPost, "/api/stocks/"+id+"/batches", "bodeguero", map[string]interface{}{
		"batch_number": "Y-1", "quantity": 5, "expiration_date": time.Now().AddDate(0, 0, 10),
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = f.call(t, http.MethodGet, "/api/stocks/"+id+"/batches", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	b := list[0].(map[string]interface{})
	assert.Equal(t, "AVAILABLE", b["status"])
	assert.Equal(t, "NORMAL", b["urgency"])
	assert.Greater(t, b["days_until_expiration"].(float64), float64(300))

	completed, err := time.Parse(time.RFC3339, body["completed_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, engineNow, completed, time.Second)
}
