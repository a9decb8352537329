package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/AlexanderTar/art-collection/docs"
	"github.com/AlexanderTar/art-collection/internal/config"
	"github.com/AlexanderTar/art-collection/internal/gateway"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{Sponsorship: config.SponsorshipConfig{
		ChainID:           8453,
		EntryPoint:        config.DefaultEntryPoint,
		FeeSweepAddress:   "0x00000000000000000000000000000000000000fe",
		SponsoredContract: "",
	}}
	logger := log.New(io.Discard, "", 0)
	rpc := gateway.NewHandler(gateway.VariantBundler, gateway.Deps{}, logger)
	pm := gateway.NewHandler(gateway.VariantPaymaster, gateway.Deps{}, logger)
	return NewRouter(cfg, rpc, pm)
}

func get(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestAddressLookup(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/api/v1/addresses?contract=EntryPoint")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var resp AddressLookupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Contract != "entrypoint" || resp.Address != config.DefaultEntryPoint || resp.ChainID != 8453 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if w := get(t, r, "/api/v1/addresses?contract=fee_sweep"); w.Code != http.StatusOK {
		t.Fatalf("fee_sweep: unexpected status %d", w.Code)
	}
	if w := get(t, r, "/api/v1/addresses?contract=sponsored_contract"); w.Code != http.StatusNotFound {
		t.Fatalf("sponsored_contract: expected 404, got %d", w.Code)
	}
	if w := get(t, r, "/api/v1/addresses?contract=factory"); w.Code != http.StatusBadRequest {
		t.Fatalf("factory: expected 400, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	if w := get(t, r, "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}
	if w := get(t, r, "/metrics"); w.Code != http.StatusOK {
		t.Fatalf("metrics: unexpected status %d", w.Code)
	}
}

func TestPaymasterRouteIsRestricted(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	body := `{"jsonrpc":"2.0","id":1,"method":"eth_sendUserOperation","params":[]}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/paymaster", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":-32601`) {
		t.Fatalf("expected method not found, got %s", w.Body.String())
	}
}

func TestSwaggerDocServed(t *testing.T) {
	r := newTestRouter(t)

	w := get(t, r, "/swagger/doc.json")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := doc.Paths["/api/v1/addresses"]["get"]; !ok {
		t.Fatalf("address lookup missing from %s", w.Body.String())
	}
	if w := get(t, r, "/swagger/index.html"); w.Code != http.StatusOK {
		t.Fatalf("index: unexpected status %d", w.Code)
	}
}
