package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-service/config"
	"inventory-service/internal/models"
	"inventory-service/internal/report"
	"inventory-service/internal/service"
	"inventory-service/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memorySessions map[string]models.User

func (m memorySessions) CurrentUser(ctx context.Context, token string) *models.User {
	u, ok := m[token]
	if !ok {
		return nil
	}
	return &u
}

func (m memorySessions) SetCurrentUser(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		delete(m, token)
		return nil
	}
	m[token] = *user
	return nil
}

type testServer struct {
	router *gin.Engine
	token  string
}

type orderView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := service.NewState(memstore.New(), models.DefaultCatalog)
	require.NoError(t, state.Load(context.Background()))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService(memorySessions{}, config.AuthConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
		AdminID:           "u1",
		AdminName:         "Admin",
	})

	handler := NewHandler(
		state,
		service.NewInventoryService(state, nil, 100),
		service.NewOrderService(state, nil, nil, "borrar"),
		auth,
		time.UTC,
	)
	router := gin.New()
	handler.SetupRoutes(router)

	ts := &testServer{router: router}
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ADMIN@example.com","password":"s3cret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	ts.token = body.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) firstProduct(t *testing.T) models.Product {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.NotEmpty(t, products)
	return products[0]
}

func TestRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	rec := ts.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"admin@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u1"`)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddStockEndpoint(t *testing.T) {
	ts := newTestServer(t)
	p := ts.firstProduct(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/stock", `{"quantity":5}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, p.Stock+5, updated.Stock)

	rec = ts.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/stock", `{"quantity":-1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = ts.do(t, http.MethodPost, "/api/v1/products/missing/stock", `{"quantity":1}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/amazon/transfer", `{"quantity":1}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAmazonProductEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/amazon/products",
		`{"sku":"AMZ-9","name":"Solo Amazon","amazon_stock":25,"price":"12"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 25, created.AmazonStock)
	assert.Equal(t, 0, created.Stock)
	assert.True(t, created.AmazonEnabled)

	rec = ts.do(t, http.MethodPost, "/api/v1/products/"+created.ID+"/amazon/sales", `{"quantity":5}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sold models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sold))
	assert.Equal(t, 20, sold.AmazonStock)

	rec = ts.do(t, http.MethodPost, "/api/v1/amazon/products",
		`{"sku":"AMZ-10","name":"Negativo","amazon_stock":-3}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPickupOrderFlow(t *testing.T) {
	ts := newTestServer(t)
	p := ts.firstProduct(t)

	body := `{"type":"PICKUP","recipient_name":"Lucía","items":[{"product_id":"` + p.ID + `","quantity":2}]}`
	rec := ts.do(t, http.MethodPost, "/api/v1/orders", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "PENDING", order.Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/scan/"+order.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fulfillable":true`)

	rec = ts.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/fulfill", `{"signature":"firma"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "DELIVERED", order.Status)

	rec = ts.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/fulfill", `{"signature":"firma"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, p.Stock-2, ts.firstProduct(t).Stock)

	rec = ts.do(t, http.MethodGet, "/api/v1/scan/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGiftWithoutAuthorizerIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	p := ts.firstProduct(t)

	body := `{"type":"GIFT","recipient_name":"Prensa","items":[{"product_id":"` + p.ID + `","quantity":1}]}`
	rec := ts.do(t, http.MethodPost, "/api/v1/orders", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	ts := newTestServer(t)
	p := ts.firstProduct(t)

	body := `{"type":"DIRECT_SALE","recipient_name":"Cliente","items":[{"product_id":"` + p.ID + `","quantity":1}]}`
	rec := ts.do(t, http.MethodPost, "/api/v1/orders", body, map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order orderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	rec = ts.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID+"?confirm=true", "", map[string]string{"X-Delete-Password": "mal"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, "", map[string]string{"X-Delete-Password": "borrar"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID+"?confirm=true", "", map[string]string{"X-Delete-Password": "borrar"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonthlyReportCSV(t *testing.T) {
	ts := newTestServer(t)
	p := ts.firstProduct(t)

	body := `{"type":"DIRECT_SALE","recipient_name":"Cliente","items":[{"product_id":"` + p.ID + `","quantity":2}]}`
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/v1/orders", body, nil).Code)

	month := report.MonthKey(time.Now(), time.UTC)
	rec := ts.do(t, http.MethodGet, "/api/v1/reports/monthly.csv?month="+month, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reporte-"+month+".csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"Producto","Unidades","Ventas"`))
	assert.Contains(t, rec.Body.String(), `"Total","2",`)

	rec = ts.do(t, http.MethodGet, "/api/v1/reports/monthly.csv?month=1999-01", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/reports/monthly?month=enero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/reports/months", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), month)
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/v1/reload", "", nil).Code)
}
