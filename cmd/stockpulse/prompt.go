package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

const otherOption = "Other (type a ticker or company name)"

// presetOptions builds the select options for the presets plus free text.
func presetOptions(presets []config.Preset) []string {
	opts := make([]string, 0, len(presets)+1)
	for _, p := range presets {
		opts = append(opts, fmt.Sprintf("%s (%s)", p.Name, p.Ticker))
	}
	return append(opts, otherOption)
}

// presetTicker maps a selected option back to its ticker.
func presetTicker(presets []config.Preset, option string) (string, bool) {
	for i, opt := range presetOptions(presets) {
		if opt == option && i < len(presets) {
			return presets[i].Ticker, true
		}
	}
	return "", false
}

// promptQuery asks for a query interactively.
func promptQuery(presets []config.Preset) (string, error) {
	var choice string
	sel := &survey.Select{
		Message: "Which stock should be analyzed?",
		Options: presetOptions(presets),
	}
	if err := survey.AskOne(sel, &choice); err != nil {
		return "", err
	}
	if ticker, ok := presetTicker(presets, choice); ok {
		return ticker, nil
	}

	var query string
	input := &survey.Input{
		Message: "Ticker or company name:",
		Help:    "NSE tickers end in .NS (e.g. INFY.NS); company names are resolved by the engine",
	}
	err := survey.AskOne(input, &query, survey.WithValidator(func(val interface{}) error {
		if s, ok := val.(string); !ok || strings.TrimSpace(s) == "" {
			return errors.New("a ticker or company name is required")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return utils.CleanQuery(query), nil
}
