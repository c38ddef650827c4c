// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cobaltcore-dev/propscout/internal/db"
	"github.com/go-gorp/gorp"
	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type firmRow struct {
	Slug string `db:"slug,primarykey"`
	Name string `db:"name"`
}

func (firmRow) TableName() string { return "catalog_firms" }

type offerRow struct {
	ID           string              `db:"id,primarykey"`
	FirmSlug     string              `db:"firm_slug"`
	Name         string              `db:"name"`
	Size         decimal.Decimal     `db:"size"`
	Phases       string              `db:"phases"` // json, see EncodePhases
	PriceInitial decimal.Decimal     `db:"price_initial"`
	PriceReset   decimal.NullDecimal `db:"price_reset"`
	MonthlyFee   decimal.NullDecimal `db:"monthly_fee"`
	PurchaseURL  string              `db:"purchase_url"`
}

func (offerRow) TableName() string { return "catalog_offers" }

type ruleFactRow struct {
	OfferID  string `db:"offer_id,primarykey"`
	Phase    string `db:"phase,primarykey"`
	Position int    `db:"position,primarykey"`
	Type     string `db:"type"`
	Label    string `db:"label"`
	Severity string `db:"severity"`
	Kind     string `db:"value_kind"`
	Raw      string `db:"value_raw"`
}

func (ruleFactRow) TableName() string { return "catalog_rule_facts" }

// Catalog source backed by the database.
type DBRepository struct {
	db *db.DB
}

func NewDBRepository(d *db.DB) *DBRepository {
	d.AddTable(firmRow{})
	d.AddTable(offerRow{})
	d.AddTable(ruleFactRow{})
	return &DBRepository{db: d}
}

// Create the catalog tables if they don't exist yet.
func (r *DBRepository) Init() error {
	return r.db.CreateTable(
		r.db.AddTable(firmRow{}),
		r.db.AddTable(offerRow{}),
		r.db.AddTable(ruleFactRow{}),
	)
}

// Load a full catalog snapshot. The three tables are read concurrently.
// Rows that cannot be decoded are skipped.
func (r *DBRepository) Load(ctx context.Context) (Catalog, error) {
	var (
		firms  []firmRow
		offers []offerRow
		facts  []ruleFactRow
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := r.db.SelectTimed(ctx, "catalog_firms", &firms, "SELECT * FROM catalog_firms")
		return err
	})
	g.Go(func() error {
		_, err := r.db.SelectTimed(ctx, "catalog_offers", &offers, "SELECT * FROM catalog_offers")
		return err
	})
	g.Go(func() error {
		_, err := r.db.SelectTimed(ctx, "catalog_rule_facts", &facts, "SELECT * FROM catalog_rule_facts")
		return err
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	slices.SortFunc(firms, func(a, b firmRow) int { return cmp.Compare(a.Slug, b.Slug) })
	slices.SortFunc(offers, func(a, b offerRow) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(facts, func(a, b ruleFactRow) int {
		return cmp.Or(
			cmp.Compare(a.OfferID, b.OfferID),
			cmp.Compare(Phase(a.Phase).Order(), Phase(b.Phase).Order()),
			cmp.Compare(a.Position, b.Position),
		)
	})

	var c Catalog
	for _, f := range firms {
		c.Firms = append(c.Firms, Firm(f))
	}
	for _, row := range offers {
		offer, err := row.decode()
		if err != nil {
			slog.Warn("skipping undecodable offer", "offer", row.ID, "error", err)
			continue
		}
		c.Offers = append(c.Offers, offer)
	}
	for _, row := range facts {
		fact, err := row.decode()
		if err != nil {
			slog.Warn("skipping undecodable rule fact", "offer", row.OfferID, "phase", row.Phase, "position", row.Position, "error", err)
			continue
		}
		n := len(c.Profiles)
		if n > 0 && c.Profiles[n-1].OfferID == row.OfferID && c.Profiles[n-1].Phase == Phase(row.Phase) {
			c.Profiles[n-1].Facts = append(c.Profiles[n-1].Facts, fact)
			continue
		}
		c.Profiles = append(c.Profiles, OfferRuleProfile{
			OfferID: row.OfferID,
			Phase:   Phase(row.Phase),
			Facts:   []RuleFact{fact},
		})
	}
	return c, nil
}

// Replace the stored catalog with the given one in a single transaction.
func (r *DBRepository) Seed(ctx context.Context, c Catalog) error {
	if err := r.Init(); err != nil {
		return err
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	exec := tx.WithContext(ctx)
	for _, table := range []string{"catalog_rule_facts", "catalog_offers", "catalog_firms"} {
		if _, err := exec.Exec("DELETE FROM " + table); err != nil {
			return rollback(tx, err)
		}
	}
	for _, f := range c.Firms {
		if err := exec.Insert(&firmRow{Slug: f.Slug, Name: f.Name}); err != nil {
			return rollback(tx, err)
		}
	}
	for _, o := range c.Offers {
		row, err := encodeOffer(o)
		if err != nil {
			return rollback(tx, err)
		}
		if err := exec.Insert(&row); err != nil {
			return rollback(tx, err)
		}
	}
	positions := make(map[[2]string]int)
	for _, p := range c.Profiles {
		for _, f := range p.Facts {
			key := [2]string{p.OfferID, string(p.Phase)}
			kind, raw := EncodeRuleValue(f.Value)
			row := ruleFactRow{
				OfferID:  p.OfferID,
				Phase:    string(p.Phase),
				Position: positions[key],
				Type:     f.Type,
				Label:    f.Label,
				Severity: string(f.Severity),
				Kind:     string(kind),
				Raw:      raw,
			}
			positions[key]++
			if err := exec.Insert(&row); err != nil {
				return rollback(tx, err)
			}
		}
	}
	return tx.Commit()
}

func rollback(tx *gorp.Transaction, err error) error {
	return errors.Join(err, tx.Rollback())
}

func encodeOffer(o Offer) (offerRow, error) {
	phases, err := EncodePhases(o.Phases)
	if err != nil {
		return offerRow{}, fmt.Errorf("offer %q: %w", o.ID, err)
	}
	return offerRow{
		ID:           o.ID,
		FirmSlug:     o.FirmSlug,
		Name:         o.Name,
		Size:         o.Size,
		Phases:       phases,
		PriceInitial: o.PriceInitial,
		PriceReset:   nullDecimal(o.PriceReset),
		MonthlyFee:   nullDecimal(o.MonthlyFee),
		PurchaseURL:  o.PurchaseURL,
	}, nil
}

func (row offerRow) decode() (Offer, error) {
	phases, err := ParsePhases(row.Phases)
	if err != nil {
		return Offer{}, err
	}
	return Offer{
		ID:           row.ID,
		FirmSlug:     row.FirmSlug,
		Name:         row.Name,
		Size:         row.Size,
		Phases:       phases,
		PriceInitial: row.PriceInitial,
		PriceReset:   fromNullDecimal(row.PriceReset),
		MonthlyFee:   fromNullDecimal(row.MonthlyFee),
		PurchaseURL:  row.PurchaseURL,
	}, nil
}

func (row ruleFactRow) decode() (RuleFact, error) {
	if !Phase(row.Phase).Valid() {
		return RuleFact{}, fmt.Errorf("%w: %q", errUnknownPhase, row.Phase)
	}
	if !Severity(row.Severity).Valid() {
		return RuleFact{}, fmt.Errorf("invalid severity %q", row.Severity)
	}
	value, err := ParseRuleValue(ValueKind(row.Kind), row.Raw)
	if err != nil {
		return RuleFact{}, err
	}
	return RuleFact{Type: row.Type, Label: row.Label, Severity: Severity(row.Severity), Value: value}, nil
}

func nullDecimal(o option.Option[decimal.Decimal]) decimal.NullDecimal {
	if v, ok := o.Unpack(); ok {
		return decimal.NullDecimal{Decimal: v, Valid: true}
	}
	return decimal.NullDecimal{}
}

func fromNullDecimal(n decimal.NullDecimal) option.Option[decimal.Decimal] {
	if !n.Valid {
		return option.None[decimal.Decimal]()
	}
	return option.Some(n.Decimal)
}
