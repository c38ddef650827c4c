// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/cobaltcore-dev/propscout/internal/discovery"
	"github.com/sapcc/go-bits/must"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Run discovery against a catalog fixture and print the result.
func main() {
	catalogPath := flag.String("catalog", "", "Catalog fixture to rank (default: bundled demo catalog)")
	requestPath := flag.String("request", "", "Request as yaml or json file, - for stdin (default: empty request)")
	jsonOut := flag.Bool("json", false, "Always print json, even on a terminal")
	maxAlternatives := flag.Int("alternatives", 0, "Number of alternatives to return (default: 4)")
	help := flag.Bool("help", false, "Show this help message")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *help {
		flag.Usage()
		os.Exit(0)
	}

	c := must.Return(catalog.FixtureLoader{Path: *catalogPath}.Load(context.Background()))
	req, err := readRequest(*requestPath, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid request: %v\n", err)
		os.Exit(1)
	}
	opts := discovery.DefaultOptions()
	if *maxAlternatives != 0 {
		opts.MaxAlternatives = *maxAlternatives
	}

	result, err := discovery.Run(req, c, opts)
	if errors.Is(err, discovery.ErrNoViableCandidates) {
		fmt.Fprintln(os.Stderr, "No offer in the catalog matches this request.")
		os.Exit(2)
	}
	must.Succeed(err)

	if *jsonOut || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must.Succeed(enc.Encode(result))
		return
	}
	printSummary(os.Stdout, result)
}

// Read a request from a yaml or json file, or from stdin if path is "-".
// Yaml is converted to json first so that both use the same field names.
func readRequest(path string, stdin io.Reader) (discovery.Request, error) {
	var req discovery.Request
	var data []byte
	var err error
	switch path {
	case "":
		return req, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return req, err
	}
	if raw == nil {
		return req, nil
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return req, err
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// Short human readable rendition of a result.
func printSummary(w io.Writer, result discovery.Result) {
	p := result.Primary
	fmt.Fprintf(w, "Recommended: %s by %s (%s upfront)\n", p.Offer.Name, p.Firm.Name, catalog.FormatMoney(p.Cost.Day0Cost))
	if result.BeatsCurrentBadge != "" {
		fmt.Fprintf(w, "  * %s\n", result.BeatsCurrentBadge)
		for _, why := range result.BeatsCurrentWhy {
			fmt.Fprintf(w, "    %s\n", why)
		}
	}
	fmt.Fprintln(w, "\nWhy this wins:")
	for _, s := range p.Explanation.WhyThisWins {
		fmt.Fprintf(w, "  + %s\n", s)
	}
	fmt.Fprintln(w, "\nWhat you give up:")
	for _, s := range p.Explanation.WhatYouGiveUp {
		fmt.Fprintf(w, "  - %s\n", s)
	}

	rows := p.Rows
	if len(result.Alternatives) > 0 {
		rows = discovery.PairRows(p.Rows, result.Alternatives[0].Rows)
		fmt.Fprintf(w, "\nCompared to %s by %s:\n", result.Alternatives[0].Offer.Name, result.Alternatives[0].Firm.Name)
	} else {
		fmt.Fprintln(w, "\nAt a glance:")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		if row.Kind == discovery.RowKindSection {
			fmt.Fprintf(tw, "  %s\t\t\n", strings.ToUpper(row.Label))
			continue
		}
		marker := ""
		if row.Differs {
			marker = " *"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s%s\n", row.Label, row.RecommendedValue, row.AlternativeValue, marker)
	}
	must.Succeed(tw.Flush())

	if len(result.Alternatives) > 0 {
		fmt.Fprintln(w, "\nAlternatives:")
		for _, alt := range result.Alternatives {
			fmt.Fprintf(w, "  %d. %s by %s (%s to fund)\n", alt.Rank+1, alt.Offer.Name, alt.Firm.Name, catalog.FormatMoney(alt.Cost.TypicalToFund))
		}
	}
	fmt.Fprintf(w, "\n%d of %d offers matched the request.\n", result.Eligible, result.Considered)
}
