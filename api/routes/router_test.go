package routes

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/estatedesk-backend/internal/transfer"
	"github.com/angelmondragon/estatedesk-backend/pkg/auth"
	"github.com/angelmondragon/estatedesk-backend/pkg/config"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
	"github.com/angelmondragon/estatedesk-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

type countingSales struct {
	calls int
}

func (c *countingSales) Finalize(ctx context.Context, req transfer.Request) (transfer.Outcome, error) {
	c.calls++
	return transfer.Outcome{
		State:   transfer.StateSucceeded,
		Sale:    &models.Sale{ID: uuid.New()},
		Mutated: []string{"units", "sales"},
	}, nil
}

type stubUnits struct{}

func (stubUnits) FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error) {
	return &models.Unit{ID: unitID, BuildingID: buildingID}, nil
}

type stubDeposits struct{}

func (stubDeposits) Preview(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "estatedesk", ExpirationMinutes: 60},
		Sale: config.SaleConfig{
			IdempotencyTTL: time.Hour,
			MaxUploadMB:    1,
		},
	}
}

func bearer(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:      uuid.New(),
		DisplayName: "Nadia Agent",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func saleBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("buyer_name", "Omar Khalil")
	_ = mw.WriteField("payment_methods", "cash")
	_ = mw.WriteField("cash_amount", "100000")
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func newTestRouter(sales SaleService) (http.Handler, *config.Config) {
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewSaleMetrics(reg)
	return NewRouter(cfg, logger.Nop(), Deps{
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Idempotency: &memoryIdempotency{data: map[string]string{}},
		Gatherer:    reg,
		Sales:       sales,
		Units:       stubUnits{},
		Deposits:    stubDeposits{},
	}), cfg
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(&countingSales{})
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router, _ := newTestRouter(&countingSales{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestSaleRouteRequiresAuth(t *testing.T) {
	sales := &countingSales{}
	router, _ := newTestRouter(sales)
	body, contentType := saleBody(t)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/buildings/%s/units/%s/sale", uuid.New(), uuid.New()), body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if sales.calls != 0 {
		t.Fatal("service should not run")
	}
}

func TestSaleRouteRejectsViewer(t *testing.T) {
	sales := &countingSales{}
	router, cfg := newTestRouter(sales)
	body, contentType := saleBody(t)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/buildings/%s/units/%s/sale", uuid.New(), uuid.New()), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, cfg, enums.MemberRoleViewer))
	req.Header.Set("Idempotency-Key", "k1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestSaleRouteRequiresIdempotencyKey(t *testing.T) {
	sales := &countingSales{}
	router, cfg := newTestRouter(sales)
	body, contentType := saleBody(t)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/buildings/%s/units/%s/sale", uuid.New(), uuid.New()), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, cfg, enums.MemberRoleAgent))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MissingIdempotencyKey") {
		t.Fatalf("expected MissingIdempotencyKey, got %s", rec.Body.String())
	}
}

func TestSaleRouteReplaysRepeatedKey(t *testing.T) {
	sales := &countingSales{}
	router, cfg := newTestRouter(sales)
	path := fmt.Sprintf("/api/v1/buildings/%s/units/%s/sale", uuid.New(), uuid.New())
	token := bearer(t, cfg, enums.MemberRoleManager)

	body, contentType := saleBody(t)
	payload := body.Bytes()
	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", token)
		req.Header.Set("Idempotency-Key", "sale-key")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d: %s", i, rec.Code, rec.Body.String())
		}
		if i == 0 {
			first = rec.Body.String()
		} else if rec.Body.String() != first {
			t.Fatalf("expected replayed body")
		}
	}
	if sales.calls != 1 {
		t.Fatalf("expected one finalize call, got %d", sales.calls)
	}
}

func TestDepositRoute(t *testing.T) {
	router, cfg := newTestRouter(&countingSales{})
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/buildings/%s/units/%s/sale/deposit", uuid.New(), uuid.New()), nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.MemberRoleOwner))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
