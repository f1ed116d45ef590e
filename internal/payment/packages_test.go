package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParsePayload(t *testing.T) {
	for _, p := range Packages {
		payload := EncodePayload(p.Credits)
		credits, err := ParsePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, p.Credits, credits)
	}
}

func TestParsePayloadRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"buy:credits:",
		"buy:credits:abc",
		"buy:credits:-5",
		"buy:credits:0",
		"subscribe:monthly",
		"buy:credits:500:250",
	}
	for _, payload := range cases {
		_, err := ParsePayload(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestEncodeParseBuyCallback(t *testing.T) {
	for _, p := range Packages {
		data := EncodeBuyCallback(p)
		parsed, err := ParseBuyCallback(data)
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}

func TestParseBuyCallbackRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"buy:credits:500",
		"buy:credits:500:250:1",
		"buy:credits:x:250",
		"buy:credits:500:y",
		"buy:credits:-1:250",
		"buy:credits:500:0",
		"profile",
	}
	for _, data := range cases {
		_, err := ParseBuyCallback(data)
		assert.Error(t, err, "callback %q", data)
	}
}
