// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"

	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
)

// A prop firm selling funding accounts.
type Firm struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// A purchasable funding account offered by a firm.
type Offer struct {
	// Stable id, unique within the catalog.
	ID       string
	FirmSlug string
	Name     string
	// Nominal account size.
	Size         decimal.Decimal
	Phases       PhaseStructure
	PriceInitial decimal.Decimal
	PriceReset   option.Option[decimal.Decimal]
	MonthlyFee   option.Option[decimal.Decimal]
	PurchaseURL  string
}

type offerJSON struct {
	ID           string           `json:"id"`
	FirmSlug     string           `json:"firmSlug"`
	Name         string           `json:"name"`
	Size         decimal.Decimal  `json:"size"`
	Phases       any              `json:"phases"`
	Steps        int              `json:"steps"`
	PriceInitial decimal.Decimal  `json:"priceInitial"`
	PriceReset   *decimal.Decimal `json:"priceReset,omitempty"`
	MonthlyFee   *decimal.Decimal `json:"monthlyFee,omitempty"`
	PurchaseURL  string           `json:"purchaseUrl,omitempty"`
}

func (o Offer) MarshalJSON() ([]byte, error) {
	var phases any = []Phase{}
	switch p := o.Phases.(type) {
	case PhaseList:
		phases = []Phase(p)
	case NamedPhases:
		phases = []NamedPhase(p)
	}
	return json.Marshal(offerJSON{
		ID:           o.ID,
		FirmSlug:     o.FirmSlug,
		Name:         o.Name,
		Size:         o.Size,
		Phases:       phases,
		Steps:        StepCount(o.Phases),
		PriceInitial: o.PriceInitial,
		PriceReset:   optionalMoney(o.PriceReset),
		MonthlyFee:   optionalMoney(o.MonthlyFee),
		PurchaseURL:  o.PurchaseURL,
	})
}

func optionalMoney(o option.Option[decimal.Decimal]) *decimal.Decimal {
	if v, ok := o.Unpack(); ok {
		return &v
	}
	return nil
}

// How strongly a rule bites.
type Severity string

const (
	// Violating the rule ends the account.
	SeverityKill Severity = "kill"
	// The rule limits how the account can be traded.
	SeverityConstraint Severity = "constraint"
	// Minor cost or annoyance.
	SeverityFriction Severity = "friction"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityKill, SeverityConstraint, SeverityFriction:
		return true
	default:
		return false
	}
}

// A single rule or mechanic attached to an offer for one phase.
type RuleFact struct {
	// Slug of the rule type, e.g. "trailing-drawdown".
	Type     string
	Label    string
	Severity Severity
	Value    RuleValue
}

type ruleValueJSON struct {
	Kind    ValueKind `json:"kind"`
	Raw     string    `json:"raw"`
	Display string    `json:"display"`
}

type ruleFactJSON struct {
	Type     string        `json:"type"`
	Label    string        `json:"label"`
	Severity Severity      `json:"severity"`
	Value    ruleValueJSON `json:"value"`
}

func (f RuleFact) MarshalJSON() ([]byte, error) {
	kind, raw := EncodeRuleValue(f.Value)
	return json.Marshal(ruleFactJSON{
		Type:     f.Type,
		Label:    f.Label,
		Severity: f.Severity,
		Value:    ruleValueJSON{Kind: kind, Raw: raw, Display: FormatRuleValue(f.Value)},
	})
}

// Rule facts of one offer in one phase, in display order.
type OfferRuleProfile struct {
	OfferID string
	Phase   Phase
	Facts   []RuleFact
}

// Fully loaded, read-only snapshot of firms, offers and their rule profiles.
type Catalog struct {
	Firms    []Firm
	Offers   []Offer
	Profiles []OfferRuleProfile
}

func (c Catalog) Firm(slug string) (Firm, bool) {
	for _, f := range c.Firms {
		if f.Slug == slug {
			return f, true
		}
	}
	return Firm{}, false
}

func (c Catalog) Offer(id string) (Offer, bool) {
	for _, o := range c.Offers {
		if o.ID == id {
			return o, true
		}
	}
	return Offer{}, false
}

// Rule facts of the offer in the given phase. Multiple profiles for the
// same offer and phase are concatenated in catalog order.
func (c Catalog) Facts(offerID string, phase Phase) []RuleFact {
	var facts []RuleFact
	for _, p := range c.Profiles {
		if p.OfferID == offerID && p.Phase == phase {
			facts = append(facts, p.Facts...)
		}
	}
	return facts
}

// Firms keyed by slug.
func (c Catalog) FirmIndex() map[string]Firm {
	index := make(map[string]Firm, len(c.Firms))
	for _, f := range c.Firms {
		index[f.Slug] = f
	}
	return index
}

// Rule facts of the given phase keyed by offer id, concatenated like Facts.
func (c Catalog) FactsIndex(phase Phase) map[string][]RuleFact {
	index := make(map[string][]RuleFact)
	for _, p := range c.Profiles {
		if p.Phase == phase {
			index[p.OfferID] = append(index[p.OfferID], p.Facts...)
		}
	}
	return index
}
