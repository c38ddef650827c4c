// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import "github.com/cobaltcore-dev/propscout/internal/discovery"

// Body of POST /discovery/v1/recommendations.
type RecommendationRequest struct {
	Request discovery.Request `json:"request"`
	// Used to look up the current offer if the request doesn't name one.
	UserID string `json:"userId,omitempty"`
	// Also return the primary side by side with the first alternative.
	Compare bool `json:"compare,omitempty"`
}

type RecommendationResponse struct {
	RequestID string `json:"requestId"`
	discovery.Result
	Comparison []discovery.TradeoffRow `json:"comparison,omitempty"`
}

// Body of PUT and response of GET /discovery/v1/users/{userID}/current-offer.
type CurrentOffer struct {
	OfferID string `json:"offerId"`
}

// Summary of a discovery run published over mqtt.
type ResultSummary struct {
	RequestID    string   `json:"requestId"`
	Primary      string   `json:"primary"`
	Alternatives []string `json:"alternatives"`
	Badge        string   `json:"badge,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
