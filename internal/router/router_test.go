package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/constants"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testInternalToken = "internal-test-token"

type routerTestEnv struct {
	engine    *gin.Engine
	db        *gorm.DB
	container *provider.Container
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupRouterTest(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server:      config.ServerConfig{Mode: "debug"},
		JWT:         config.JWTConfig{SecretKey: "router-test-secret", ExpireHours: 1},
		Ledger:      config.LedgerConfig{PlatformFeePercent: 10},
		Settlement:  config.SettlementConfig{CycleDays: 7},
		InternalAPI: config.InternalAPIConfig{Token: testInternalToken},
		Metrics:     config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	container, err := provider.NewContainerWithDB(cfg, db)
	if err != nil {
		t.Fatalf("build container failed: %v", err)
	}
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "router_test_requests_total",
		Help: "router test counter",
	}))

	return &routerTestEnv{
		engine:    SetupRouter(cfg, container),
		db:        db,
		container: container,
	}
}

func (e *routerTestEnv) createAdmin(t *testing.T, username string, isSuper bool, roles ...string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := models.Admin{Username: username, PasswordHash: string(hash), IsSuper: isSuper}
	if err := e.db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if len(roles) > 0 {
		if _, err := e.container.AuthzService.SetAdminRoles(admin.ID, roles); err != nil {
			t.Fatalf("assign roles failed: %v", err)
		}
	}

	resp := e.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": username,
		"password": "secret-pass",
	}, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("login failed: %d %s", resp.StatusCode, resp.Msg)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login token missing: %v", err)
	}
	return data.Token
}

func (e *routerTestEnv) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s %s failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func (e *routerTestEnv) postOrder(t *testing.T, orderID, itemID uint, amount string, trigger time.Time) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/internal/ledger/order-events", "", map[string]interface{}{
		"order_id":     orderID,
		"trigger_date": trigger.Format(time.RFC3339),
		"items": []map[string]interface{}{
			{"order_item_id": itemID, "retailer_id": 1, "warehouse_id": 1, "amount": amount, "platform_fee": "0"},
		},
	}, map[string]string{constants.InternalTokenHeader: testInternalToken})
	if resp.StatusCode != 0 {
		t.Fatalf("post order event failed: %d %s", resp.StatusCode, resp.Msg)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupRouterTest(t)

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health unexpected: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "router_test_requests_total") {
		t.Fatalf("metrics endpoint should expose container registry, got %d", w.Code)
	}
}

func TestInternalOrderEventRequiresToken(t *testing.T) {
	env := setupRouterTest(t)
	resp := env.do(t, http.MethodPost, "/api/internal/ledger/order-events", "", map[string]interface{}{
		"order_id": 1,
		"items":    []map[string]interface{}{{"order_item_id": 1, "retailer_id": 1, "warehouse_id": 1, "amount": "10"}},
	}, map[string]string{constants.InternalTokenHeader: "wrong"})
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestInternalOrderEventPostsSynchronouslyWithoutQueue(t *testing.T) {
	env := setupRouterTest(t)
	resp := env.do(t, http.MethodPost, "/api/internal/ledger/order-events", "", map[string]interface{}{
		"order_id": 7,
		"order_no": "SO-7",
		"items":    []map[string]interface{}{{"order_item_id": 70, "retailer_id": 1, "warehouse_id": 2, "amount": "50.00"}},
	}, map[string]string{constants.InternalTokenHeader: testInternalToken})
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var data struct {
		Queued  bool                 `json:"queued"`
		Entries []models.LedgerEntry `json:"entries"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data failed: %v", err)
	}
	if data.Queued || len(data.Entries) != 2 {
		t.Fatalf("expected synchronous posting with revenue and fee, got queued=%v entries=%d", data.Queued, len(data.Entries))
	}

	invalid := env.do(t, http.MethodPost, "/api/internal/ledger/order-events", "", map[string]interface{}{
		"order_id": 8,
		"items":    []map[string]interface{}{{"order_item_id": 80, "retailer_id": 1, "warehouse_id": 2, "amount": "0"}},
	}, map[string]string{constants.InternalTokenHeader: testInternalToken})
	if invalid.StatusCode != 400 {
		t.Fatalf("zero amount status_code want 400 got %d", invalid.StatusCode)
	}

	fractional := env.do(t, http.MethodPost, "/api/internal/ledger/order-events", "", map[string]interface{}{
		"order_id": 9,
		"items":    []map[string]interface{}{{"order_item_id": 90, "retailer_id": 1, "warehouse_id": 2, "amount": "10.005"}},
	}, map[string]string{constants.InternalTokenHeader: testInternalToken})
	if fractional.StatusCode != 400 {
		t.Fatalf("three decimal amount status_code want 400 got %d", fractional.StatusCode)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	env := setupRouterTest(t)
	env.createAdmin(t, "root", true)
	resp := env.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "root",
		"password": "nope",
	}, nil)
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := setupRouterTest(t)
	resp := env.do(t, http.MethodGet, "/api/admin/ledger/entries", "", nil, nil)
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestReadonlyAuditorCannotSettle(t *testing.T) {
	env := setupRouterTest(t)
	token := env.createAdmin(t, "auditor", false, constants.RoleReadonlyAuditor)
	env.postOrder(t, 1, 11, "100.00", time.Now().Add(-48*time.Hour))

	list := env.do(t, http.MethodGet, "/api/admin/ledger/entries?retailer_id=1", token, nil, nil)
	if list.StatusCode != 0 {
		t.Fatalf("auditor list status_code want 0 got %d", list.StatusCode)
	}
	summary := env.do(t, http.MethodGet, "/api/admin/dashboard/summary?retailer_id=1", token, nil, nil)
	if summary.StatusCode != 0 {
		t.Fatalf("auditor dashboard status_code want 0 got %d", summary.StatusCode)
	}

	settle := env.do(t, http.MethodPost, "/api/admin/settlements", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "10.00",
	}, nil)
	if settle.StatusCode != 403 {
		t.Fatalf("auditor settlement status_code want 403 got %d", settle.StatusCode)
	}
	roles := env.do(t, http.MethodGet, "/api/admin/authz/roles", token, nil, nil)
	if roles.StatusCode != 403 {
		t.Fatalf("auditor authz roles status_code want 403 got %d", roles.StatusCode)
	}
}

func TestFinanceOperatorSettlementFlow(t *testing.T) {
	env := setupRouterTest(t)
	token := env.createAdmin(t, "finance", false, constants.RoleFinanceOperator)
	env.postOrder(t, 1, 11, "100.00", time.Now().Add(-72*time.Hour))
	env.postOrder(t, 2, 21, "50.00", time.Now().Add(-48*time.Hour))

	preview := env.do(t, http.MethodPost, "/api/admin/settlements/preview", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "120.00",
	}, nil)
	if preview.StatusCode != 0 {
		t.Fatalf("preview status_code want 0 got %d (%s)", preview.StatusCode, preview.Msg)
	}

	settle := env.do(t, http.MethodPost, "/api/admin/settlements", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "120.00",
		"note":        "weekly payout",
	}, nil)
	if settle.StatusCode != 0 {
		t.Fatalf("settle status_code want 0 got %d (%s)", settle.StatusCode, settle.Msg)
	}
	var settlement struct {
		ID     uint   `json:"id"`
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(settle.Data, &settlement); err != nil || settlement.ID == 0 {
		t.Fatalf("decode settlement failed: %v", err)
	}

	detail := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/settlements/%d?retailer_id=1", settlement.ID), token, nil, nil)
	if detail.StatusCode != 0 {
		t.Fatalf("detail status_code want 0 got %d", detail.StatusCode)
	}
	foreign := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/settlements/%d?retailer_id=2", settlement.ID), token, nil, nil)
	if foreign.StatusCode != 404 {
		t.Fatalf("foreign retailer detail status_code want 404 got %d", foreign.StatusCode)
	}

	short := env.do(t, http.MethodPost, "/api/admin/settlements", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "100.00",
	}, nil)
	if short.StatusCode != 422 {
		t.Fatalf("insufficient status_code want 422 got %d", short.StatusCode)
	}
	var shortfall map[string]string
	if err := json.Unmarshal(short.Data, &shortfall); err != nil {
		t.Fatalf("decode shortfall failed: %v", err)
	}
	if shortfall["available"] != "30.00" || shortfall["shortfall"] != "70.00" {
		t.Fatalf("unexpected shortfall payload: %+v", shortfall)
	}

	adjust := env.do(t, http.MethodPost, "/api/admin/ledger/adjustments", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "5.00",
		"entry_type":  "debit",
		"note":        "chargeback",
	}, nil)
	if adjust.StatusCode != 0 {
		t.Fatalf("adjustment status_code want 0 got %d (%s)", adjust.StatusCode, adjust.Msg)
	}
	badAdjust := env.do(t, http.MethodPost, "/api/admin/ledger/adjustments", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      "-5.00",
		"entry_type":  "CREDIT",
	}, nil)
	if badAdjust.StatusCode != 400 {
		t.Fatalf("negative adjustment status_code want 400 got %d", badAdjust.StatusCode)
	}
	preciseSettle := env.do(t, http.MethodPost, "/api/admin/settlements", token, map[string]interface{}{
		"retailer_id": 1,
		"amount":      10.005,
	}, nil)
	if preciseSettle.StatusCode != 400 {
		t.Fatalf("three decimal settlement status_code want 400 got %d", preciseSettle.StatusCode)
	}
}

func TestSuperAdminAssignsRoles(t *testing.T) {
	env := setupRouterTest(t)
	rootToken := env.createAdmin(t, "root", true)
	env.createAdmin(t, "ops", false)

	var ops models.Admin
	if err := env.db.Where("username = ?", "ops").First(&ops).Error; err != nil {
		t.Fatalf("load ops admin failed: %v", err)
	}

	path := fmt.Sprintf("/api/admin/authz/admins/%d/roles", ops.ID)
	unknown := env.do(t, http.MethodPost, path, rootToken, map[string]interface{}{"roles": []string{"ghost"}}, nil)
	if unknown.StatusCode != 400 {
		t.Fatalf("unknown role status_code want 400 got %d", unknown.StatusCode)
	}

	assign := env.do(t, http.MethodPost, path, rootToken, map[string]interface{}{"roles": []string{constants.RoleFinanceOperator}}, nil)
	if assign.StatusCode != 0 {
		t.Fatalf("assign status_code want 0 got %d (%s)", assign.StatusCode, assign.Msg)
	}
	roles, err := env.container.AuthzService.GetAdminRoles(ops.ID)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:"+constants.RoleFinanceOperator {
		t.Fatalf("unexpected roles: %v", roles)
	}

	logs := env.do(t, http.MethodGet, "/api/admin/authz/audit-logs", rootToken, nil, nil)
	if logs.StatusCode != 0 || !strings.Contains(string(logs.Data), "admin_roles_set") {
		t.Fatalf("audit log should record role assignment, got %d %s", logs.StatusCode, string(logs.Data))
	}

	catalog := env.do(t, http.MethodGet, "/api/admin/authz/permissions/catalog", rootToken, nil, nil)
	if !strings.Contains(string(catalog.Data), "/admin/settlements/preview") {
		t.Fatalf("catalog should list settlement preview route")
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/admin/settlements/:id": "settlements",
		"/admin/authz/roles":     "authz",
		"/admin":                 "admin",
		"/":                      "system",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module of %s want %s got %s", object, want, got)
		}
	}
}

func TestAdminPasswordChangeRevokesToken(t *testing.T) {
	env := setupRouterTest(t)
	token := env.createAdmin(t, "finance", false, constants.RoleFinanceOperator)

	wrong := env.do(t, http.MethodPut, "/api/admin/password", token, map[string]string{
		"old_password": "not-it",
		"new_password": "new-secret-9",
	}, nil)
	if wrong.StatusCode != 400 {
		t.Fatalf("wrong old password status_code want 400 got %d", wrong.StatusCode)
	}

	changed := env.do(t, http.MethodPut, "/api/admin/password", token, map[string]string{
		"old_password": "secret-pass",
		"new_password": "new-secret-9",
	}, nil)
	if changed.StatusCode != 0 {
		t.Fatalf("change password status_code want 0 got %d (%s)", changed.StatusCode, changed.Msg)
	}

	me := env.do(t, http.MethodGet, "/api/admin/me", token, nil, nil)
	if me.StatusCode != 401 {
		t.Fatalf("old token after password change status_code want 401 got %d", me.StatusCode)
	}
}

func TestLoginAttemptsAreLogged(t *testing.T) {
	env := setupRouterTest(t)
	rootToken := env.createAdmin(t, "root", true)
	env.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "root",
		"password": "bad",
	}, nil)

	resp := env.do(t, http.MethodGet, "/api/admin/authz/login-logs?status=failed", rootToken, nil, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("login logs status_code want 0 got %d", resp.StatusCode)
	}
	var rows []models.AdminLoginLog
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatalf("decode login logs failed: %v", err)
	}
	if len(rows) != 1 || rows[0].FailReason != constants.LoginLogFailReasonInvalidCredentials {
		t.Fatalf("expected one invalid_credentials failure, got %+v", rows)
	}

	var success int64
	if err := env.db.Model(&models.AdminLoginLog{}).Where("status = ?", constants.LoginLogStatusSuccess).Count(&success).Error; err != nil {
		t.Fatalf("count success logs failed: %v", err)
	}
	if success != 1 {
		t.Fatalf("success login logs want 1 got %d", success)
	}
}
