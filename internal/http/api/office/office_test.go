package office

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/config"
	"github.com/golden-turf/backoffice/internal/db"
	internalsettings "github.com/golden-turf/backoffice/internal/settings"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := db.Open(filepath.Join(t.TempDir(), "office.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	engine := gin.New()
	RegisterOfficeRoutes(engine, Deps{
		DB:       conn,
		JWT:      config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		Settings: internalsettings.NewStore(conn),
	})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("encode body: %v", errMarshal)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), errDecode)
	}
	return out
}

func register(t *testing.T, engine *gin.Engine, name, email string, perms []string) {
	t.Helper()
	w := doJSON(t, engine, http.MethodPost, "/v0/office/register", "", gin.H{
		"name":        name,
		"email":       email,
		"password":    "secret123",
		"permissions": perms,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
}

func login(t *testing.T, engine *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, engine, http.MethodPost, "/v0/office/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: missing token", email)
	}
	return token
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)
	w := doJSON(t, engine, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	engine := newTestEngine(t)

	register(t, engine, "Alice", "alice@example.com", nil)
	token := login(t, engine, "alice@example.com")

	if w := doJSON(t, engine, http.MethodGet, "/v0/office/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w := doJSON(t, engine, http.MethodGet, "/v0/office/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", w.Code, w.Body.String())
	}
	me := decodeBody(t, w)
	if me["email"] != "alice@example.com" {
		t.Fatalf("unexpected profile %v", me)
	}
	// First registered user becomes admin.
	if me["role"] != "admin" {
		t.Fatalf("expected first user to be admin, got %v", me["role"])
	}

	wBad := doJSON(t, engine, http.MethodPost, "/v0/office/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if wBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", wBad.Code)
	}
}

func TestModulePermissions(t *testing.T) {
	engine := newTestEngine(t)

	register(t, engine, "Alice", "alice@example.com", nil)
	register(t, engine, "Bob", "bob@example.com", []string{"clients"})
	adminToken := login(t, engine, "alice@example.com")
	bobToken := login(t, engine, "bob@example.com")

	if w := doJSON(t, engine, http.MethodGet, "/v0/office/clients", bobToken, nil); w.Code != http.StatusOK {
		t.Fatalf("bob should reach clients, got %d", w.Code)
	}
	if w := doJSON(t, engine, http.MethodGet, "/v0/office/products", bobToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("bob should be denied products, got %d", w.Code)
	}
	if w := doJSON(t, engine, http.MethodGet, "/v0/office/products", adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("admin should reach products, got %d", w.Code)
	}
	if w := doJSON(t, engine, http.MethodGet, "/v0/office/settings", bobToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("settings should be admin only, got %d", w.Code)
	}
}

func TestInvoiceCreationRunsPricing(t *testing.T) {
	engine := newTestEngine(t)

	register(t, engine, "Alice", "alice@example.com", nil)
	token := login(t, engine, "alice@example.com")

	wClient := doJSON(t, engine, http.MethodPost, "/v0/office/clients", token, gin.H{"name": "Greenfield Homes"})
	if wClient.Code != http.StatusCreated {
		t.Fatalf("create client: status %d body %s", wClient.Code, wClient.Body.String())
	}
	clientID := decodeBody(t, wClient)["id"].(float64)

	// Golden Green Lush is seeded at 30.00 and Artificial Hedges at 15.00:
	// 10 sqm x 30 + 2 x 15 = 330, plus 10% tax = 363.
	wInvoice := doJSON(t, engine, http.MethodPost, "/v0/office/invoices", token, gin.H{
		"client_id": clientID,
		"product":   "Golden Green Lush",
		"area":      10,
		"extras": []gin.H{
			{"name": "artificial_hedges", "quantity": 2},
		},
		"tax_inclusive": true,
	})
	if wInvoice.Code != http.StatusCreated {
		t.Fatalf("create invoice: status %d body %s", wInvoice.Code, wInvoice.Body.String())
	}
	invoice := decodeBody(t, wInvoice)
	if got := invoice["subtotal"].(float64); got != 330 {
		t.Fatalf("expected subtotal 330, got %v", got)
	}
	if got := invoice["tax"].(float64); got != 33 {
		t.Fatalf("expected tax 33, got %v", got)
	}
	if got := invoice["total"].(float64); got != 363 {
		t.Fatalf("expected total 363, got %v", got)
	}
	if invoice["status"] != "pending" {
		t.Fatalf("expected pending status, got %v", invoice["status"])
	}
}

func TestOwnedRecordVisibility(t *testing.T) {
	engine := newTestEngine(t)

	register(t, engine, "Alice", "alice@example.com", nil)
	register(t, engine, "Bob", "bob@example.com", []string{"clients"})
	adminToken := login(t, engine, "alice@example.com")
	bobToken := login(t, engine, "bob@example.com")

	wClient := doJSON(t, engine, http.MethodPost, "/v0/office/clients", bobToken, gin.H{"name": "Bob's Client"})
	if wClient.Code != http.StatusCreated {
		t.Fatalf("create client: status %d", wClient.Code)
	}
	wOther := doJSON(t, engine, http.MethodPost, "/v0/office/clients", adminToken, gin.H{"name": "Admin's Client"})
	if wOther.Code != http.StatusCreated {
		t.Fatalf("create client: status %d", wOther.Code)
	}

	bobList := decodeBody(t, doJSON(t, engine, http.MethodGet, "/v0/office/clients", bobToken, nil))
	if got := len(bobList["clients"].([]any)); got != 1 {
		t.Fatalf("bob should see only his client, got %d", got)
	}
	adminList := decodeBody(t, doJSON(t, engine, http.MethodGet, "/v0/office/clients", adminToken, nil))
	if got := len(adminList["clients"].([]any)); got != 2 {
		t.Fatalf("admin should see all clients, got %d", got)
	}
}
