// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cobaltcore-dev/propscout/internal/db"
)

// Returned by CurrentOffer when the user has not told us about an offer.
var ErrNotFound = errors.New("no current offer for user")

// Keyed store that remembers which offer a trader currently holds.
type Store interface {
	CurrentOffer(ctx context.Context, userID string) (string, error)
	SetCurrentOffer(ctx context.Context, userID, offerID string) error
}

type currentOffer struct {
	UserID    string    `db:"user_id,primarykey"`
	OfferID   string    `db:"offer_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (currentOffer) TableName() string { return "user_current_offers" }

type dbStore struct {
	db  *db.DB
	now func() time.Time
}

// Create the store and its table if it doesn't exist yet.
func NewDBStore(d *db.DB) (Store, error) {
	if err := d.CreateTable(d.AddTable(currentOffer{})); err != nil {
		return nil, fmt.Errorf("failed to create current offer table: %w", err)
	}
	return &dbStore{db: d, now: time.Now}, nil
}

func (s *dbStore) CurrentOffer(ctx context.Context, userID string) (string, error) {
	var rows []currentOffer
	query := "SELECT * FROM " + currentOffer{}.TableName() + " WHERE user_id = :userID"
	if _, err := s.db.SelectTimed(ctx, "accounts", &rows, query, map[string]any{"userID": userID}); err != nil {
		return "", fmt.Errorf("failed to look up current offer: %w", err)
	}
	if len(rows) == 0 {
		return "", ErrNotFound
	}
	return rows[0].OfferID, nil
}

func (s *dbStore) SetCurrentOffer(ctx context.Context, userID, offerID string) error {
	if userID == "" || offerID == "" {
		return errors.New("user id and offer id must not be empty")
	}
	row := &currentOffer{UserID: userID, OfferID: offerID, UpdatedAt: s.now().UTC()}
	if err := db.Upsert(s.db.WithContext(ctx), row); err != nil {
		return fmt.Errorf("failed to store current offer: %w", err)
	}
	return nil
}
