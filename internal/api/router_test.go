package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/auth"
	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/domain/materials"
	"github.com/Spok95/school-supply/internal/domain/requests"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/domain/users"
)

func init() { gin.SetMode(gin.TestMode) }

var people = map[string]access.Identity{
	"tok-req":   {UserID: 1, Name: "Joana", Role: users.RoleRequester},
	"tok-desp":  {UserID: 2, Name: "Carla", Role: users.RoleDispatcher},
	"tok-admin": {UserID: 3, Name: "Admin", Role: users.RoleAdmin},
}

type fakeAuth struct{ loggedOut []string }

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, *users.User, error) {
	if email == "carla@escola.br" && password == "segredo123" {
		return "tok-desp", &users.User{ID: 2, Name: "Carla", Email: email, Role: users.RoleDispatcher}, nil
	}
	return "", nil, apperr.Unauthorized("e-mail ou senha inválidos")
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (access.Identity, *auth.Claims, error) {
	id, ok := people[token]
	if !ok {
		return access.Identity{}, nil, apperr.Unauthorized("token inválido ou expirado")
	}
	cl := &auth.Claims{UserID: id.UserID}
	cl.Id = token
	return id, cl, nil
}

func (f *fakeAuth) Logout(_ context.Context, claims *auth.Claims) error {
	f.loggedOut = append(f.loggedOut, claims.Id)
	return nil
}

type fakeMaterials struct {
	items   map[int64]materials.Material
	created []materials.Input
	err     error
}

func (f *fakeMaterials) Create(_ context.Context, in materials.Input) (int64, error) {
	f.created = append(f.created, in)
	return int64(len(f.items) + 100), f.err
}

func (f *fakeMaterials) GetByID(_ context.Context, id int64) (*materials.Material, error) {
	if m, ok := f.items[id]; ok {
		return &m, nil
	}
	return nil, f.err
}

func (f *fakeMaterials) Update(context.Context, int64, materials.Input) error { return f.err }

func (f *fakeMaterials) Delete(context.Context, int64) error { return f.err }

func (f *fakeMaterials) List(context.Context) ([]materials.Material, error) {
	var out []materials.Material
	for _, m := range f.items {
		out = append(out, m)
	}
	return out, f.err
}

func (f *fakeMaterials) Search(context.Context, string) ([]materials.Material, error) { return nil, f.err }

func (f *fakeMaterials) ListLowStock(context.Context) ([]materials.Material, error) { return nil, f.err }

type mockRequests struct{ mock.Mock }

func (m *mockRequests) Create(ctx context.Context, who access.Identity, in requests.CreateInput) (int64, error) {
	args := m.Called(who, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRequests) Get(ctx context.Context, who access.Identity, id int64) (*requests.Request, error) {
	args := m.Called(who, id)
	r, _ := args.Get(0).(*requests.Request)
	return r, args.Error(1)
}

func (m *mockRequests) List(ctx context.Context, who access.Identity, f requests.Filter) ([]requests.Request, error) {
	args := m.Called(who, f)
	out, _ := args.Get(0).([]requests.Request)
	return out, args.Error(1)
}

func (m *mockRequests) Update(ctx context.Context, who access.Identity, id int64, in requests.CreateInput) error {
	return m.Called(who, id, in).Error(0)
}

func (m *mockRequests) Approve(ctx context.Context, who access.Identity, id int64, approvals []requests.Approval) error {
	return m.Called(who, id, approvals).Error(0)
}

func (m *mockRequests) Dispatch(ctx context.Context, who access.Identity, id int64) error {
	return m.Called(who, id).Error(0)
}

func (m *mockRequests) Reject(ctx context.Context, who access.Identity, id int64, reason string) error {
	return m.Called(who, id, reason).Error(0)
}

func (m *mockRequests) Cancel(ctx context.Context, who access.Identity, id int64) error {
	return m.Called(who, id).Error(0)
}

type fakeEntries struct {
	batch []stockentries.Input
}

func (f *fakeEntries) Create(context.Context, int64, stockentries.Input) (int64, error) { return 1, nil }

func (f *fakeEntries) CreateBatch(_ context.Context, _ int64, ins []stockentries.Input) ([]int64, error) {
	f.batch = ins
	ids := make([]int64, len(ins))
	for i := range ins {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (f *fakeEntries) GetByID(context.Context, int64) (*stockentries.Entry, error) { return nil, nil }

func (f *fakeEntries) List(context.Context, stockentries.Filter) ([]stockentries.Entry, error) {
	return nil, nil
}

func (f *fakeEntries) Update(context.Context, int64, int64, stockentries.Input) error { return nil }

func (f *fakeEntries) Delete(context.Context, int64, int64) error { return nil }

type fakeUsers struct{ deleted []int64 }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	for _, p := range people {
		if p.UserID == id {
			return &users.User{ID: id, Name: p.Name, Role: p.Role}, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(context.Context) ([]users.User, error) { return nil, nil }

func (f *fakeUsers) Create(context.Context, users.Input, string) (int64, error) { return 10, nil }

func (f *fakeUsers) Update(context.Context, int64, users.Input, string) error { return nil }

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type env struct {
	router    *gin.Engine
	auth      *fakeAuth
	materials *fakeMaterials
	requests  *mockRequests
	entries   *fakeEntries
	users     *fakeUsers
}

func newEnv() *env {
	e := &env{
		auth: &fakeAuth{},
		materials: &fakeMaterials{items: map[int64]materials.Material{
			1: {ID: 1, Name: "Lápis", Unit: "un", CurrentStock: 2, MinStock: 5, CreatedAt: time.Now()},
		}},
		requests: &mockRequests{},
		entries:  &fakeEntries{},
		users:    &fakeUsers{},
	}
	e.router = NewRouter(Deps{
		Log:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Auth:        e.auth,
		Materials:   e.materials,
		Entries:     e.entries,
		Users:       e.users,
		Requests:    e.requests,
		ServiceName: "test",
	}, true)
	return e
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv()
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestLogin(t *testing.T) {
	e := newEnv()

	w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "carla@escola.br", "password": "segredo123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "tok-desp", body["token"])
	assert.Equal(t, "despachante", body["user"].(map[string]any)["role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "carla@escola.br", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "e-mail ou senha inválidos", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nao-e-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email deve ser um e-mail válido", decode(t, w)["error"])
}

func TestAuthRequired(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodGet, "/api/materials", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token de acesso não fornecido", decode(t, w)["error"])

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/materials", "bogus", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/materials", "tok-req", nil).Code)
}

func TestMeAndLogout(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodGet, "/api/auth/me", "tok-admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Admin", decode(t, w)["user"].(map[string]any)["name"])

	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/auth/logout", "tok-admin", nil).Code)
	assert.Equal(t, []string{"tok-admin"}, e.auth.loggedOut)
}

func TestMaterialRoutes(t *testing.T) {
	e := newEnv()
	body := gin.H{"name": "Cola", "category": "papelaria", "unit": "un", "min_stock": 3}

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/materials", "tok-req", body).Code)

	w := e.do(http.MethodPost, "/api/materials", "tok-desp", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(101), decode(t, w)["id"])
	assert.Equal(t, materials.Input{Name: "Cola", Category: "papelaria", Unit: "un", MinStock: 3}, e.materials.created[0])

	w = e.do(http.MethodPost, "/api/materials", "tok-desp", gin.H{"name": "Cola"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "category é obrigatório", decode(t, w)["error"])

	w = e.do(http.MethodGet, "/api/materials/1", "tok-req", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, float64(2), got["current_stock"])
	assert.Equal(t, true, got["low_stock"])

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/materials/9", "tok-req", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/materials/abc", "tok-req", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/materials/low-stock", "tok-req", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/materials/search", "tok-req", nil).Code)
}

func TestErrorMapping(t *testing.T) {
	e := newEnv()

	e.materials.err = apperr.BusinessRule("não é possível excluir material que possui histórico de movimentação")
	w := e.do(http.MethodDelete, "/api/materials/1", "tok-admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "não é possível excluir material que possui histórico de movimentação", decode(t, w)["error"])

	e.materials.err = errors.New("connection reset by peer")
	w = e.do(http.MethodDelete, "/api/materials/1", "tok-admin", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "erro interno do servidor", decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestApproveUsesCallerIdentity(t *testing.T) {
	e := newEnv()
	who := people["tok-desp"]
	e.requests.On("Approve", who, int64(5), []requests.Approval{{ItemID: 10, Quantity: 8}}).Return(nil)

	w := e.do(http.MethodPut, "/api/requests/5/approve", "tok-desp", gin.H{
		"approved_by":         999,
		"approved_quantities": []gin.H{{"item_id": 10, "quantity": 8}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	e.requests.AssertExpectations(t)

	w = e.do(http.MethodPut, "/api/requests/5/approve", "tok-req", gin.H{
		"approved_quantities": []gin.H{{"item_id": 10, "quantity": 8}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, "/api/requests/5/approve", "tok-desp", gin.H{
		"approved_quantities": []gin.H{{"item_id": 10}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "approved_quantities[0].quantity é obrigatório", decode(t, w)["error"])
}

func TestApproveReportsShortages(t *testing.T) {
	e := newEnv()
	shortage := inventory.Check(
		map[int64]inventory.Level{1: {MaterialID: 1, Name: "Lápis"}},
		map[int64]int{1: 4},
		[]inventory.Need{{MaterialID: 1, Quantity: 6}},
	)
	e.requests.On("Approve", mock.Anything, int64(7), mock.Anything).Return(shortage)

	w := e.do(http.MethodPut, "/api/requests/7/approve", "tok-admin", gin.H{
		"approved_quantities": []gin.H{{"item_id": 1, "quantity": 6}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "estoque insuficiente para: Lápis (solicitado 6, disponível 4)", body["error"])
	list := body["insufficient"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Lápis", list[0].(map[string]any)["name"])
	assert.Equal(t, float64(4), list[0].(map[string]any)["available"])
}

func TestCreateAndListRequests(t *testing.T) {
	e := newEnv()
	who := people["tok-req"]
	in := requests.CreateInput{Priority: requests.PriorityHigh, Items: []requests.ItemInput{{MaterialID: 1, Quantity: 15}}}
	e.requests.On("Create", who, in).Return(int64(3), nil)
	e.requests.On("List", who, requests.Filter{Status: requests.StatusPending}).Return([]requests.Request{
		{ID: 3, RequesterID: 1, Status: requests.StatusPending, Priority: requests.PriorityHigh, ItemsCount: 1},
	}, nil)

	w := e.do(http.MethodPost, "/api/requests", "tok-req", gin.H{
		"priority": "alta",
		"items":    []gin.H{{"material_id": 1, "quantity": 15}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(3), decode(t, w)["id"])

	w = e.do(http.MethodPost, "/api/requests", "tok-req", gin.H{"priority": "urgente", "items": []gin.H{{"material_id": 1, "quantity": 1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "priority inválida: use baixa, media ou alta", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/requests", "tok-req", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/requests?status=pendente", "tok-req", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "pendente", list[0]["status"])
	assert.Equal(t, float64(1), list[0]["items_count"])
}

func TestRejectRequiresReason(t *testing.T) {
	e := newEnv()
	w := e.do(http.MethodPut, "/api/requests/1/reject", "tok-desp", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reason é obrigatório", decode(t, w)["error"])
}

func TestUserAdministration(t *testing.T) {
	e := newEnv()
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/users", "tok-desp", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/users", "tok-admin", nil).Code)

	w := e.do(http.MethodPost, "/api/users", "tok-admin", gin.H{"name": "Rui", "email": "rui@escola.br", "password": "123", "role": "solicitante"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "a senha deve ter pelo menos 6 caracteres", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/users", "tok-admin", gin.H{"name": "Rui", "email": "rui@escola.br", "password": strings.Repeat("x", 80), "role": "solicitante"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "a senha deve ter no máximo 72 bytes", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/users", "tok-admin", gin.H{"name": "Rui", "email": "rui@escola.br", "password": "123456", "role": "diretor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/users", "tok-admin", gin.H{"name": "Rui", "email": "rui@escola.br", "password": "123456", "role": "solicitante"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodDelete, "/api/users/3", "tok-admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "você não pode excluir o próprio usuário", decode(t, w)["error"])

	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/api/users/1", "tok-admin", nil).Code)
	assert.Equal(t, []int64{1}, e.users.deleted)
}

func TestStockEntryRolesAndImport(t *testing.T) {
	e := newEnv()
	entry := gin.H{"material_id": 1, "supplier_id": 1, "quantity": 5, "unit_price": "2.50", "expiry_date": "2027-01-31"}

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/stock-entries", "tok-req", entry).Code)
	assert.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/stock-entries", "tok-desp", entry).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, "/api/stock-entries/1", "tok-desp", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/api/stock-entries/1", "tok-admin", nil).Code)

	bad := gin.H{"material_id": 1, "supplier_id": 1, "quantity": 5, "expiry_date": "31/01/2027"}
	w := e.do(http.MethodPost, "/api/stock-entries", "tok-desp", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "expiry_date deve estar no formato AAAA-MM-DD", decode(t, w)["error"])

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"material_id", "supplier_id", "quantidade"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 1, 12}))
	xlsx := &bytes.Buffer{}
	require.NoError(t, f.Write(xlsx))

	form := &bytes.Buffer{}
	mw := multipart.NewWriter(form)
	part, err := mw.CreateFormFile("file", "entradas.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stock-entries/import", form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-desp")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, e.entries.batch, 1)
	assert.Equal(t, 12, e.entries.batch[0].Quantity)
}

func TestStockReport(t *testing.T) {
	e := newEnv()
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/reports/stock.xlsx", "tok-req", nil).Code)

	w := e.do(http.MethodGet, "/api/reports/stock.xlsx", "tok-desp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "estoque-")
}
