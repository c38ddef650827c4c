// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRuleValueCodec(t *testing.T) {
	tests := []struct {
		value   RuleValue
		kind    ValueKind
		raw     string
		display string
	}{
		{Money{Amount: decimal.NewFromInt(2500)}, KindMoney, "2500", "$2,500"},
		{Percent{Value: decimal.RequireFromString("4.5")}, KindPercent, "4.5", "4.5%"},
		{Days{N: 30}, KindDays, "30", "30 days"},
		{Days{N: 1}, KindDays, "1", "1 day"},
		{Count{N: 3}, KindCount, "3", "3"},
		{Enum{Value: "end-of-day"}, KindEnum, "end-of-day", "End Of Day"},
		{Bool{Value: true}, KindBool, "true", "Yes"},
		{Text{Value: "25% every 4 months"}, KindText, "25% every 4 months", "25% every 4 months"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.raw, func(t *testing.T) {
			kind, raw := EncodeRuleValue(tt.value)
			if kind != tt.kind || raw != tt.raw {
				t.Fatalf("expected %s %q, got %s %q", tt.kind, tt.raw, kind, raw)
			}
			parsed, err := ParseRuleValue(kind, raw)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := FormatRuleValue(parsed); got != tt.display {
				t.Errorf("expected display %q, got %q", tt.display, got)
			}
		})
	}
}

func TestEncodeNilRuleValue(t *testing.T) {
	kind, raw := EncodeRuleValue(nil)
	if kind != KindText || raw != "" {
		t.Errorf("expected empty text, got %s %q", kind, raw)
	}
	if FormatRuleValue(nil) != "" {
		t.Errorf("expected empty display for nil value")
	}
}

func TestParseRuleValueErrors(t *testing.T) {
	tests := []struct {
		kind ValueKind
		raw  string
	}{
		{KindMoney, "lots"},
		{KindPercent, "ten"},
		{KindDays, "3.5"},
		{KindCount, ""},
		{KindBool, "maybe"},
		{"duration", "1h"},
	}
	for _, tt := range tests {
		if _, err := ParseRuleValue(tt.kind, tt.raw); err == nil {
			t.Errorf("expected error for %s %q", tt.kind, tt.raw)
		}
	}
	if _, err := ParseRuleValue("duration", "1h"); !errors.Is(err, ErrUnknownValueKind) {
		t.Errorf("expected ErrUnknownValueKind, got %v", err)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{"0", "$0"},
		{"165", "$165"},
		{"1650", "$1,650"},
		{"99.5", "$99.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-80", "-$80"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.amount)); got != tt.expected {
			t.Errorf("FormatMoney(%s): expected %q, got %q", tt.amount, tt.expected, got)
		}
	}
}
