package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/persistence/sqlite"
	"github.com/warehousekit/contractd/internal/service"
	"github.com/warehousekit/contractd/internal/store"
)

type capturingBus struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (b *capturingBus) Publish(_ context.Context, _ string, msg bus.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *capturingBus) last(t *testing.T) bus.Message {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.msgs)
	return b.msgs[len(b.msgs)-1]
}

type testEnv struct {
	router    http.Handler
	pub       *capturingBus
	contracts *service.Contracts
	sagas     *store.SagaStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	contractRepo, err := sqlite.NewContractRepository(db)
	require.NoError(t, err)
	orgRepo, err := sqlite.NewOrgRepository(db)
	require.NoError(t, err)

	sagas, err := store.OpenSagaStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sagas.Close() })

	pub := &capturingBus{}
	contracts := service.NewContracts(contractRepo)
	srv := NewServer(pub, contracts, sagas, service.NewOrg(orgRepo))

	return &testEnv{
		router:    NewRouter(srv, RouterConfig{}),
		pub:       pub,
		contracts: contracts,
		sagas:     sagas,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateContractAccepted(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(t, http.MethodPost, "/unloading-contracts/"+id.String()+"/create", map[string]any{
		"warehouse_id":  uuid.New(),
		"manager_id":    uuid.New(),
		"scheduled_for": time.Now().UTC().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	cmd, ok := env.pub.last(t).(command.CreateContract)
	require.True(t, ok)
	require.Equal(t, id, cmd.ContractID)
	require.Equal(t, id, cmd.CorrelationID)
	require.Equal(t, time.UTC, cmd.ScheduledFor.Location())
}

func TestCreateContractRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(t, http.MethodPost, "/unloading-contracts/"+id.String()+"/create", map[string]any{
		"warehouse_id": uuid.Nil,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContractIDMustBeUUID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/unloading-contracts/not-a-uuid/start", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandEndpointsPublish(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	base := "/unloading-contracts/" + id.String()

	rec := env.do(t, http.MethodPost, base+"/add-line", map[string]any{
		"product_id": uuid.New(), "quantity": 3,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.IsType(t, command.AddLine{}, env.pub.last(t))

	rec = env.do(t, http.MethodPost, base+"/decrease-line", map[string]any{
		"product_id": uuid.New(), "quantity": 1,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.IsType(t, command.DecreaseLine{}, env.pub.last(t))

	rec = env.do(t, http.MethodPost, base+"/reschedule", map[string]any{
		"new_date": time.Now().UTC().Add(48 * time.Hour),
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.IsType(t, command.Reschedule{}, env.pub.last(t))

	for path, want := range map[string]bus.Message{
		"/start":    command.Start{},
		"/complete": command.Complete{},
		"/cancel":   command.Cancel{},
	} {
		rec = env.do(t, http.MethodPost, base+path, nil)
		require.Equal(t, http.StatusAccepted, rec.Code, path)
		require.IsType(t, want, env.pub.last(t), path)
	}
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(t, http.MethodPost, "/unloading-contracts/"+id.String()+"/add-line", map[string]any{
		"product_id": uuid.New(), "quantity": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, env.contracts.Create(ctx, command.CreateContract{
		CorrelationID: id,
		ContractID:    id,
		WarehouseID:   uuid.New(),
		ManagerID:     uuid.New(),
		ScheduledFor:  time.Now().UTC().Add(24 * time.Hour),
	}))
	require.NoError(t, env.contracts.AddLine(ctx, command.AddLine{
		CorrelationID: id, ContractID: id, ProductID: uuid.New(), Quantity: 5,
	}))

	rec := env.do(t, http.MethodGet, "/unloading-contracts/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp contractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, id, resp.ID)
	require.Equal(t, "pending", resp.Status)
	require.Len(t, resp.Lines, 1)
	require.Equal(t, 5, resp.Lines[0].Quantity)
}

func TestGetContractNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/unloading-contracts/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContractState(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	st := lifecycle.NewSagaState(id, time.Now())
	st.CurrentState = lifecycle.StateCreated
	require.NoError(t, env.sagas.Put(context.Background(), st))

	rec := env.do(t, http.MethodGet, "/unloading-contracts/"+id.String()+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp lifecycle.SagaState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, lifecycle.StateCreated, resp.CurrentState)

	rec = env.do(t, http.MethodGet, "/unloading-contracts/"+uuid.NewString()+"/state", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrgCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/org/buildings", map[string]any{
		"country": "Germany", "region": "Bavaria", "city": "Munich",
		"street": "Lagerstr.", "building_number": "12a", "total_floors": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var b buildingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	rec = env.do(t, http.MethodGet, "/org/buildings/"+b.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/org/facilities", map[string]any{
		"name": "North Hall", "building_id": b.ID, "floor": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var f facilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/org/facilities/%s/sections", f.ID), map[string]any{
		"code": "A-1", "area": 120.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate section code conflicts.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/org/facilities/%s/sections", f.ID), map[string]any{
		"code": "A-1", "area": 60,
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/org/facilities/%s/sections/A-1", f.ID), map[string]any{
		"area": 150.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/org/facilities/"+f.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	require.Len(t, f.Sections, 1)
	require.Equal(t, 150.0, f.Sections[0].Area)

	rec = env.do(t, http.MethodPost, "/org/facilities", map[string]any{
		"name": "Orphan", "building_id": uuid.New(), "floor": 1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	db := env // reuse handlers, fresh router with a tight limit
	srv := NewServer(db.pub, db.contracts, db.sagas, nil)
	router := NewRouter(srv, RouterConfig{RateLimitRPS: 1})

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}
