// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"encoding/json"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
)

// Normalized cost summary of an offer.
type CostModel struct {
	// What it costs to start.
	Day0Cost decimal.Decimal
	// Recurring cost over 30 days, if the offer charges monthly.
	CarryCost30 option.Option[decimal.Decimal]
	// Cost of a reset after failing, if the offer sells resets.
	ResetExposure option.Option[decimal.Decimal]
	// Day0Cost plus CarryCost30. Resets are risk, not expected cost,
	// so they are not part of this figure.
	TypicalToFund decimal.Decimal
}

func BuildCost(offer catalog.Offer) CostModel {
	c := CostModel{
		Day0Cost:      offer.PriceInitial,
		CarryCost30:   positive(offer.MonthlyFee),
		ResetExposure: positive(offer.PriceReset),
	}
	c.TypicalToFund = c.Day0Cost.Add(c.CarryCost30.UnwrapOr(decimal.Zero))
	return c
}

func positive(o option.Option[decimal.Decimal]) option.Option[decimal.Decimal] {
	if v, ok := o.Unpack(); ok && v.IsPositive() {
		return option.Some(v)
	}
	return option.None[decimal.Decimal]()
}

type costModelJSON struct {
	Day0Cost      decimal.Decimal  `json:"day0Cost"`
	CarryCost30   *decimal.Decimal `json:"carryCost30"`
	ResetExposure *decimal.Decimal `json:"resetExposure"`
	TypicalToFund decimal.Decimal  `json:"typicalToFund"`
}

func (c CostModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(costModelJSON{
		Day0Cost:      c.Day0Cost,
		CarryCost30:   pointer(c.CarryCost30),
		ResetExposure: pointer(c.ResetExposure),
		TypicalToFund: c.TypicalToFund,
	})
}

func pointer(o option.Option[decimal.Decimal]) *decimal.Decimal {
	if v, ok := o.Unpack(); ok {
		return &v
	}
	return nil
}
