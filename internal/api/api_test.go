// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/accounts"
	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/cobaltcore-dev/propscout/internal/discovery"
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	testlibMQTT "github.com/cobaltcore-dev/propscout/testlib/mqtt"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type staticCatalog struct {
	c catalog.Catalog
}

func (s staticCatalog) Snapshot() catalog.Catalog { return s.c }

type mockStore struct {
	mu     sync.Mutex
	offers map[string]string
	err    error
}

func (m *mockStore) CurrentOffer(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	offerID, ok := m.offers[userID]
	if !ok {
		return "", accounts.ErrNotFound
	}
	return offerID, nil
}

func (m *mockStore) SetCurrentOffer(_ context.Context, userID, offerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.offers == nil {
		m.offers = make(map[string]string)
	}
	m.offers[userID] = offerID
	return nil
}

// Decodable subset of RecommendationResponse.
type responseView struct {
	RequestID         string                  `json:"requestId"`
	Primary           recommendationView      `json:"primary"`
	Alternatives      []recommendationView    `json:"alternatives"`
	BeatsCurrentBadge string                  `json:"beatsCurrentBadge"`
	Comparison        []discovery.TradeoffRow `json:"comparison"`
}

type recommendationView struct {
	Offer struct {
		ID string `json:"id"`
	} `json:"offer"`
	Rows []discovery.TradeoffRow `json:"rows"`
}

func demoCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.ParseFixture(catalog.DemoFixture)
	if err != nil {
		t.Fatalf("failed to parse demo catalog: %v", err)
	}
	return c
}

func newTestAPI(t *testing.T, store accounts.Store) (*httpAPI, *testlibMQTT.MockClient, *http.ServeMux) {
	t.Helper()
	mqttClient := &testlibMQTT.MockClient{}
	api := &httpAPI{
		config:     conf.APIConfig{},
		options:    discovery.DefaultOptions(),
		catalog:    staticCatalog{c: demoCatalog(t)},
		accounts:   store,
		mqttClient: mqttClient,
		monitor:    Monitor{},
	}
	mux := http.NewServeMux()
	api.Init(mux)
	return api, mqttClient, mux
}

func postRecommendations(t *testing.T, mux *http.ServeMux, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, recommendationsPattern, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w.Result()
}

func TestRecommendations_Success(t *testing.T) {
	_, mqttClient, mux := newTestAPI(t, nil)
	resp := postRecommendations(t, mux, `{"request": {"priorities": ["total_cost"]}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
	var out responseView
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Primary.Offer.ID != "blueridge-25k-monthly" {
		t.Errorf("expected the cheapest offer first, got %s", out.Primary.Offer.ID)
	}
	if len(out.Alternatives) != 4 {
		t.Errorf("expected 4 alternatives, got %d", len(out.Alternatives))
	}
	if out.Comparison != nil {
		t.Errorf("expected no comparison unless asked for")
	}
	if out.RequestID != resp.Header.Get("X-Request-Id") {
		t.Errorf("expected the request id in the body to match the header")
	}

	published := mqttClient.Published()
	if len(published) != 1 {
		t.Fatalf("expected one published message, got %d", len(published))
	}
	if published[0].Topic != ResultsTopic {
		t.Errorf("unexpected topic %s", published[0].Topic)
	}
	summary, ok := published[0].Payload.(ResultSummary)
	if !ok {
		t.Fatalf("unexpected payload %T", published[0].Payload)
	}
	if summary.Primary != out.Primary.Offer.ID || len(summary.Alternatives) != 4 || summary.RequestID != out.RequestID {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestRecommendations_Compare(t *testing.T) {
	_, _, mux := newTestAPI(t, nil)
	resp := postRecommendations(t, mux, `{"request": {}, "compare": true}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var out responseView
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Comparison) != len(out.Primary.Rows) {
		t.Fatalf("expected %d comparison rows, got %d", len(out.Primary.Rows), len(out.Comparison))
	}
	differs := false
	for _, row := range out.Comparison {
		if row.Kind == discovery.RowKindData && row.AlternativeValue == "" {
			t.Errorf("expected row %q to carry the alternative value", row.Label)
		}
		differs = differs || row.Differs
	}
	if !differs {
		t.Error("expected at least one differing row")
	}
}

func TestRecommendations_NoViableCandidates(t *testing.T) {
	_, mqttClient, mux := newTestAPI(t, nil)
	resp := postRecommendations(t, mux, `{"request": {"budgetCeiling": "10"}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(body)) != `{"error":"no viable candidates"}` {
		t.Errorf("unexpected body %s", body)
	}
	if len(mqttClient.Published()) != 0 {
		t.Error("expected nothing to be published")
	}
}

func TestRecommendations_CatalogNotLoaded(t *testing.T) {
	api, mqttClient, mux := newTestAPI(t, nil)
	api.catalog = staticCatalog{}
	resp := postRecommendations(t, mux, `{"request": {}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(body)) != `{"error":"catalog not loaded yet"}` {
		t.Errorf("unexpected body %s", body)
	}
	if len(mqttClient.Published()) != 0 {
		t.Error("expected nothing to be published")
	}
}

func TestRecommendations_BadRequests(t *testing.T) {
	_, _, mux := newTestAPI(t, nil)
	tests := []struct {
		name     string
		method   string
		body     string
		expected int
	}{
		{"invalid method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, `{invalid json}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "", http.StatusBadRequest},
		{"invalid ceiling", http.MethodPost, `{"request": {"budgetCeiling": "lots"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, recommendationsPattern, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			resp := w.Result()
			defer resp.Body.Close()
			if resp.StatusCode != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected a json error body, got %s", ct)
			}
		})
	}
}

func TestRecommendations_BodyReadError(t *testing.T) {
	api, _, _ := newTestAPI(t, nil)
	api.config.LogRequestBodies = true
	r := httptest.NewRequest(http.MethodPost, recommendationsPattern, io.NopCloser(badReader{}))
	w := httptest.NewRecorder()
	api.Recommendations(w, r)
	resp := w.Result()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500 for body read error, got %d", resp.StatusCode)
	}
}

func TestRecommendations_CurrentOfferFromStore(t *testing.T) {
	store := &mockStore{offers: map[string]string{"trader-1": "blueridge-50k-instant"}}
	_, _, mux := newTestAPI(t, store)

	resp := postRecommendations(t, mux, `{"request": {}, "userId": "trader-1"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var out responseView
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.BeatsCurrentBadge != discovery.BeatsCurrentBadge {
		t.Errorf("expected the badge against the stored offer, got %q", out.BeatsCurrentBadge)
	}

	// An explicit current offer wins over the stored one.
	resp = postRecommendations(t, mux, `{"request": {"currentAccountId": "summit-50k-static"}, "userId": "trader-1"}`)
	defer resp.Body.Close()
	out = responseView{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.BeatsCurrentBadge != "" {
		t.Errorf("expected no badge when the primary is the current offer, got %q", out.BeatsCurrentBadge)
	}

	// Unknown users simply have no current offer.
	resp = postRecommendations(t, mux, `{"request": {}, "userId": "trader-2"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestRecommendations_StoreError(t *testing.T) {
	_, _, mux := newTestAPI(t, &mockStore{err: errors.New("db down")})
	resp := postRecommendations(t, mux, `{"request": {}, "userId": "trader-1"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}
}

func TestCurrentOffer(t *testing.T) {
	store := &mockStore{}
	_, _, mux := newTestAPI(t, store)
	path := "/discovery/v1/users/trader-1/current-offer"

	do := func(method, body string) *http.Response {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w.Result()
	}

	resp := do(http.MethodGet, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 before anything is stored, got %d", resp.StatusCode)
	}

	resp = do(http.MethodPut, `{"offerId": "summit-50k-static"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.StatusCode)
	}
	if store.offers["trader-1"] != "summit-50k-static" {
		t.Errorf("expected the offer to be stored, got %v", store.offers)
	}

	resp = do(http.MethodGet, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var out CurrentOffer
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.OfferID != "summit-50k-static" {
		t.Errorf("expected summit-50k-static, got %s", out.OfferID)
	}

	tests := []struct {
		name     string
		method   string
		body     string
		expected int
	}{
		{"unknown offer", http.MethodPut, `{"offerId": "nope"}`, http.StatusBadRequest},
		{"missing offer", http.MethodPut, `{}`, http.StatusBadRequest},
		{"invalid json", http.MethodPut, `{invalid json}`, http.StatusBadRequest},
		{"invalid method", http.MethodDelete, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(tt.method, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, resp.StatusCode)
			}
		})
	}
}

func TestCurrentOffer_NoStore(t *testing.T) {
	_, _, mux := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/discovery/v1/users/trader-1/current-offer", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestNewAPIRegistersMetrics(t *testing.T) {
	registry := monitoring.NewRegistry(conf.MonitoringConfig{})
	api := NewAPI(conf.APIConfig{}, discovery.DefaultOptions(), staticCatalog{c: demoCatalog(t)}, nil, registry, nil)
	mux := http.NewServeMux()
	api.Init(mux)

	for _, body := range []string{`{"request": {}}`, `{"request": {"budgetCeiling": "1"}}`} {
		resp := postRecommendations(t, mux, body)
		resp.Body.Close()
	}
	monitor := api.(*httpAPI).monitor
	if got := testutil.ToFloat64(monitor.noViable); got != 1 {
		t.Errorf("expected 1 run without viable candidates, got %v", got)
	}
	if got := testutil.CollectAndCount(monitor.requestTimer); got != 2 {
		t.Errorf("expected 2 request timer series, got %d", got)
	}
	if got := testutil.CollectAndCount(monitor.candidatesIn); got != 1 {
		t.Errorf("expected the candidates histogram to be collected, got %d", got)
	}
}

type badReader struct{}

func (badReader) Read([]byte) (int, error) { return 0, errors.New("read error") }
func (badReader) Close() error             { return nil }
