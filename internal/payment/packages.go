package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// Package is a purchasable credit bundle priced in Telegram Stars.
type Package struct {
	Credits int
	Stars   int
}

// Packages offered in the buy menu, smallest first.
var Packages = []Package{
	{Credits: 70, Stars: 50},
	{Credits: 160, Stars: 100},
	{Credits: 500, Stars: 250},
	{Credits: 2700, Stars: 1000},
	{Credits: 8000, Stars: 2500},
}

const payloadPrefix = "buy:credits:"

// EncodePayload builds the opaque invoice payload echoed back by Telegram
// on successful payment.
func EncodePayload(credits int) string {
	return fmt.Sprintf("%s%d", payloadPrefix, credits)
}

// ParsePayload extracts the credit amount from an invoice payload.
func ParsePayload(payload string) (int, error) {
	rest, ok := strings.CutPrefix(payload, payloadPrefix)
	if !ok {
		return 0, fmt.Errorf("unknown purchase payload %q", payload)
	}
	credits, err := strconv.Atoi(rest)
	if err != nil || credits <= 0 {
		return 0, fmt.Errorf("invalid credit amount in payload %q", payload)
	}
	return credits, nil
}

// EncodeBuyCallback builds the callback data for a package button.
func EncodeBuyCallback(p Package) string {
	return fmt.Sprintf("%s%d:%d", payloadPrefix, p.Credits, p.Stars)
}

// ParseBuyCallback extracts the package from a buy button callback.
func ParseBuyCallback(data string) (Package, error) {
	rest, ok := strings.CutPrefix(data, payloadPrefix)
	if !ok {
		return Package{}, fmt.Errorf("unknown buy callback %q", data)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return Package{}, fmt.Errorf("malformed buy callback %q", data)
	}
	credits, err := strconv.Atoi(parts[0])
	if err != nil || credits <= 0 {
		return Package{}, fmt.Errorf("invalid credits in buy callback %q", data)
	}
	stars, err := strconv.Atoi(parts[1])
	if err != nil || stars <= 0 {
		return Package{}, fmt.Errorf("invalid stars in buy callback %q", data)
	}
	return Package{Credits: credits, Stars: stars}, nil
}

// BuyCallbackPrefix is the router match prefix for package buttons.
const BuyCallbackPrefix = payloadPrefix
