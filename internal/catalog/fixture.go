// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Small demo catalog bundled with the binary.
//
//go:embed fixtures/demo.yaml
var DemoFixture []byte

type fixtureFile struct {
	Firms  []fixtureFirm  `yaml:"firms"`
	Offers []fixtureOffer `yaml:"offers"`
}

type fixtureFirm struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type fixtureOffer struct {
	ID           string                  `yaml:"id"`
	Firm         string                  `yaml:"firm"`
	Name         string                  `yaml:"name"`
	Size         float64                 `yaml:"size"`
	Phases       []Phase                 `yaml:"phases,omitempty"`
	NamedPhases  []NamedPhase            `yaml:"namedPhases,omitempty"`
	PriceInitial float64                 `yaml:"priceInitial"`
	PriceReset   *float64                `yaml:"priceReset,omitempty"`
	MonthlyFee   *float64                `yaml:"monthlyFee,omitempty"`
	PurchaseURL  string                  `yaml:"purchaseUrl,omitempty"`
	Rules        map[Phase][]fixtureRule `yaml:"rules,omitempty"`
}

type fixtureRule struct {
	Type     string    `yaml:"type"`
	Label    string    `yaml:"label"`
	Severity Severity  `yaml:"severity"`
	Kind     ValueKind `yaml:"kind"`
	Value    string    `yaml:"value"`
}

// Reads a catalog from yaml fixtures, used instead of the database in
// development and by the CLI.
type FixtureLoader struct {
	Path string
}

func (l FixtureLoader) Load(_ context.Context) (Catalog, error) {
	if l.Path == "" {
		return ParseFixture(DemoFixture)
	}
	return LoadFixture(l.Path)
}

func LoadFixture(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	c, err := ParseFixture(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("fixture %s: %w", path, err)
	}
	return c, nil
}

// Parse and validate a yaml catalog fixture.
func ParseFixture(data []byte) (Catalog, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, err
	}
	var c Catalog
	firms := make(map[string]bool, len(file.Firms))
	for _, f := range file.Firms {
		if f.Slug == "" {
			return Catalog{}, errors.New("firm without slug")
		}
		if firms[f.Slug] {
			return Catalog{}, fmt.Errorf("duplicate firm %q", f.Slug)
		}
		firms[f.Slug] = true
		c.Firms = append(c.Firms, Firm{Slug: f.Slug, Name: f.Name})
	}
	offers := make(map[string]bool, len(file.Offers))
	for _, o := range file.Offers {
		if o.ID == "" {
			return Catalog{}, errors.New("offer without id")
		}
		if offers[o.ID] {
			return Catalog{}, fmt.Errorf("duplicate offer %q", o.ID)
		}
		offers[o.ID] = true
		if !firms[o.Firm] {
			return Catalog{}, fmt.Errorf("offer %q references unknown firm %q", o.ID, o.Firm)
		}
		offer, profiles, err := o.decode()
		if err != nil {
			return Catalog{}, fmt.Errorf("offer %q: %w", o.ID, err)
		}
		c.Offers = append(c.Offers, offer)
		c.Profiles = append(c.Profiles, profiles...)
	}
	return c, nil
}

func (o fixtureOffer) decode() (Offer, []OfferRuleProfile, error) {
	offer := Offer{
		ID:           o.ID,
		FirmSlug:     o.Firm,
		Name:         o.Name,
		Size:         decimal.NewFromFloat(o.Size),
		PriceInitial: decimal.NewFromFloat(o.PriceInitial),
		PriceReset:   optionalAmount(o.PriceReset),
		MonthlyFee:   optionalAmount(o.MonthlyFee),
		PurchaseURL:  o.PurchaseURL,
	}
	switch {
	case len(o.Phases) > 0 && len(o.NamedPhases) > 0:
		return Offer{}, nil, errors.New("both phases and namedPhases given")
	case len(o.NamedPhases) > 0:
		offer.Phases = NamedPhases(o.NamedPhases)
	default:
		offer.Phases = PhaseList(o.Phases)
	}
	if err := validatePhases(offer.Phases.Phases()); err != nil {
		return Offer{}, nil, err
	}
	if offer.PriceInitial.IsNegative() {
		return Offer{}, nil, errors.New("negative initial price")
	}

	phases := make([]Phase, 0, len(o.Rules))
	for phase := range o.Rules {
		if !phase.Valid() {
			return Offer{}, nil, fmt.Errorf("%w: %q", errUnknownPhase, phase)
		}
		phases = append(phases, phase)
	}
	slices.SortFunc(phases, func(a, b Phase) int { return a.Order() - b.Order() })

	profiles := make([]OfferRuleProfile, 0, len(phases))
	for _, phase := range phases {
		profile := OfferRuleProfile{OfferID: o.ID, Phase: phase}
		for _, r := range o.Rules[phase] {
			fact, err := r.decode()
			if err != nil {
				return Offer{}, nil, err
			}
			profile.Facts = append(profile.Facts, fact)
		}
		profiles = append(profiles, profile)
	}
	return offer, profiles, nil
}

func (r fixtureRule) decode() (RuleFact, error) {
	if r.Type == "" {
		return RuleFact{}, errors.New("rule without type")
	}
	if !r.Severity.Valid() {
		return RuleFact{}, fmt.Errorf("rule %q has invalid severity %q", r.Type, r.Severity)
	}
	kind := r.Kind
	if kind == "" {
		kind = KindText
	}
	value, err := ParseRuleValue(kind, r.Value)
	if err != nil {
		return RuleFact{}, fmt.Errorf("rule %q: %w", r.Type, err)
	}
	return RuleFact{Type: r.Type, Label: r.Label, Severity: r.Severity, Value: value}, nil
}

func optionalAmount(f *float64) option.Option[decimal.Decimal] {
	if f == nil {
		return option.None[decimal.Decimal]()
	}
	return option.Some(decimal.NewFromFloat(*f))
}
