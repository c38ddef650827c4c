// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cobaltcore-dev/propscout/internal/accounts"
	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/cobaltcore-dev/propscout/internal/conf"
	"github.com/cobaltcore-dev/propscout/internal/discovery"
	"github.com/cobaltcore-dev/propscout/internal/logging"
	"github.com/cobaltcore-dev/propscout/internal/monitoring"
	"github.com/cobaltcore-dev/propscout/internal/mqtt"
	"github.com/google/uuid"
)

const (
	recommendationsPattern = "/discovery/v1/recommendations"
	currentOfferPattern    = "/discovery/v1/users/{userID}/current-offer"

	// Topic on which a summary of every successful discovery run is published.
	ResultsTopic = "propscout/discovery/results"
)

var errCatalogNotLoaded = errors.New("catalog not loaded yet")

// Supplies the catalog snapshot a request runs against.
type CatalogSource interface {
	Snapshot() catalog.Catalog
}

type HTTPAPI interface {
	// Bind the server handlers.
	Init(*http.ServeMux)
}

type httpAPI struct {
	config     conf.APIConfig
	options    discovery.Options
	catalog    CatalogSource
	accounts   accounts.Store
	mqttClient mqtt.Client
	monitor    Monitor
}

func NewAPI(
	config conf.APIConfig,
	options discovery.Options,
	source CatalogSource,
	store accounts.Store,
	registry *monitoring.Registry,
	mqttClient mqtt.Client,
) HTTPAPI {
	return &httpAPI{
		config:     config,
		options:    options,
		catalog:    source,
		accounts:   store,
		mqttClient: mqttClient,
		monitor:    NewMonitor(registry),
	}
}

// Init the API mux and bind the handlers.
func (httpAPI *httpAPI) Init(mux *http.ServeMux) {
	mux.HandleFunc(recommendationsPattern, httpAPI.Recommendations)
	mux.HandleFunc(currentOfferPattern, httpAPI.CurrentOffer)
}

// Logger carrying a fresh request id, which is also echoed to the client.
func requestLogger(w http.ResponseWriter, r *http.Request) (id string, log *slog.Logger) {
	id = uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	return id, logging.ForRequest(id, r.Method, r.URL.Path)
}

// Read the body and, if configured, log it out.
func (httpAPI *httpAPI) readBody(r *http.Request, log *slog.Logger) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if httpAPI.config.LogRequestBodies {
		log.Info("request body", "body", string(body))
	}
	return body, nil
}

// Handle the POST request for recommendations.
// The request describes what the trader is looking for, the response
// contains the primary recommendation, ranked alternatives and the
// explanations and comparison rows for each of them.
func (httpAPI *httpAPI) Recommendations(w http.ResponseWriter, r *http.Request) {
	requestID, log := requestLogger(w, r)
	c := httpAPI.monitor.Callback(w, r, recommendationsPattern, log)

	// Exit early if the request method is not POST.
	if r.Method != http.MethodPost {
		internalErr := fmt.Errorf("invalid request method: %s", r.Method)
		c.Respond(http.StatusMethodNotAllowed, internalErr, "invalid request method")
		return
	}
	body, err := httpAPI.readBody(r, log)
	if err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to read request body")
		return
	}
	var requestData RecommendationRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&requestData); err != nil {
		c.Respond(http.StatusBadRequest, err, "failed to decode request body")
		return
	}
	req := requestData.Request

	// Fill in the current offer from what the user told us before.
	if req.CurrentAccountID == "" && requestData.UserID != "" && httpAPI.accounts != nil {
		offerID, err := httpAPI.accounts.CurrentOffer(r.Context(), requestData.UserID)
		switch {
		case err == nil:
			req.CurrentAccountID = offerID
		case errors.Is(err, accounts.ErrNotFound):
			log.Debug("user has no current offer", "userID", requestData.UserID)
		default:
			c.Respond(http.StatusInternalServerError, err, "failed to look up current offer")
			return
		}
	}
	log.Info(
		"handling discovery request",
		"priorities", req.Priorities, "mustHave", req.MustHave,
		"exclude", req.Exclude, "current", req.CurrentAccountID,
	)

	snapshot := httpAPI.catalog.Snapshot()
	if len(snapshot.Offers) == 0 {
		c.Respond(http.StatusServiceUnavailable, errCatalogNotLoaded, errCatalogNotLoaded.Error())
		return
	}
	result, err := discovery.Run(req, snapshot, httpAPI.options)
	if errors.Is(err, discovery.ErrNoViableCandidates) {
		httpAPI.monitor.observeNoViable()
		c.Respond(http.StatusUnprocessableEntity, err, discovery.ErrNoViableCandidates.Error())
		return
	}
	if err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to run discovery")
		return
	}
	httpAPI.monitor.observeRun(log, snapshot, result)

	response := RecommendationResponse{RequestID: requestID, Result: result}
	if requestData.Compare && len(result.Alternatives) > 0 {
		response.Comparison = discovery.PairRows(result.Primary.Rows, result.Alternatives[0].Rows)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		c.Respond(http.StatusInternalServerError, err, "failed to encode response")
		return
	}
	if httpAPI.mqttClient != nil {
		httpAPI.mqttClient.Publish(ResultsTopic, summarize(requestID, result))
	}
	c.Respond(http.StatusOK, nil, "Success")
}

func summarize(requestID string, result discovery.Result) ResultSummary {
	summary := ResultSummary{
		RequestID:    requestID,
		Primary:      result.Primary.Offer.ID,
		Alternatives: make([]string, 0, len(result.Alternatives)),
		Badge:        result.BeatsCurrentBadge,
	}
	for _, alt := range result.Alternatives {
		summary.Alternatives = append(summary.Alternatives, alt.Offer.ID)
	}
	return summary
}

// Handle GET and PUT for the offer a user currently holds.
func (httpAPI *httpAPI) CurrentOffer(w http.ResponseWriter, r *http.Request) {
	_, log := requestLogger(w, r)
	c := httpAPI.monitor.Callback(w, r, currentOfferPattern, log)

	userID := r.PathValue("userID")
	if userID == "" {
		c.Respond(http.StatusBadRequest, errors.New("missing user id"), "missing user id")
		return
	}
	if httpAPI.accounts == nil {
		c.Respond(http.StatusServiceUnavailable, errors.New("no accounts store configured"), "accounts are not available")
		return
	}

	switch r.Method {
	case http.MethodGet:
		offerID, err := httpAPI.accounts.CurrentOffer(r.Context(), userID)
		if errors.Is(err, accounts.ErrNotFound) {
			c.Respond(http.StatusNotFound, err, "no current offer")
			return
		}
		if err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to look up current offer")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CurrentOffer{OfferID: offerID}); err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to encode response")
			return
		}
		c.Respond(http.StatusOK, nil, "Success")

	case http.MethodPut:
		body, err := httpAPI.readBody(r, log)
		if err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to read request body")
			return
		}
		var requestData CurrentOffer
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(&requestData); err != nil {
			c.Respond(http.StatusBadRequest, err, "failed to decode request body")
			return
		}
		if requestData.OfferID == "" {
			c.Respond(http.StatusBadRequest, errors.New("empty offer id"), "missing offer id")
			return
		}
		if _, ok := httpAPI.catalog.Snapshot().Offer(requestData.OfferID); !ok {
			internalErr := fmt.Errorf("offer %q is not in the catalog", requestData.OfferID)
			c.Respond(http.StatusBadRequest, internalErr, "unknown offer")
			return
		}
		if err := httpAPI.accounts.SetCurrentOffer(r.Context(), userID, requestData.OfferID); err != nil {
			c.Respond(http.StatusInternalServerError, err, "failed to store current offer")
			return
		}
		log.Info("stored current offer", "userID", userID, "offerID", requestData.OfferID)
		w.WriteHeader(http.StatusNoContent)
		c.Respond(http.StatusNoContent, nil, "Success")

	default:
		internalErr := fmt.Errorf("invalid request method: %s", r.Method)
		c.Respond(http.StatusMethodNotAllowed, internalErr, "invalid request method")
	}
}
