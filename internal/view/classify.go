package view

import "strings"

// Polarity is the colour class of a directional value.
type Polarity string

const (
	Positive Polarity = "positive"
	Neutral  Polarity = "neutral"
	Negative Polarity = "negative"
)

// RSIZone classifies an RSI reading.
type RSIZone string

const (
	Overbought RSIZone = "overbought"
	Oversold   RSIZone = "oversold"
	RSINeutral RSIZone = "neutral"
)

// SMAPosition places the latest price relative to the 50-day SMA.
type SMAPosition string

const (
	AboveSMA SMAPosition = "above"
	BelowSMA SMAPosition = "below"
)

// Variant is the badge style of a recommendation.
type Variant string

const (
	VariantBuy        Variant = "buy"
	VariantSell       Variant = "sell"
	VariantHold       Variant = "hold"
	VariantStrongBuy  Variant = "strong-buy"
	VariantStrongSell Variant = "strong-sell"
	VariantNeutral    Variant = "neutral"
)

var knownVariants = map[string]Variant{
	"buy":         VariantBuy,
	"sell":        VariantSell,
	"hold":        VariantHold,
	"strong buy":  VariantStrongBuy,
	"strong sell": VariantStrongSell,
}

// ClassifyTrend maps the engine's free-text trend label to a polarity.
// "bullish" is checked before "sideways"; anything else is negative.
func ClassifyTrend(trend string) Polarity {
	t := strings.ToLower(trend)
	switch {
	case strings.Contains(t, "bullish"):
		return Positive
	case strings.Contains(t, "sideways"):
		return Neutral
	default:
		return Negative
	}
}

// ClassifyRSI returns the zone for an RSI value. Both bounds are exclusive.
func ClassifyRSI(rsi float64) RSIZone {
	switch {
	case rsi > 70:
		return Overbought
	case rsi < 30:
		return Oversold
	default:
		return RSINeutral
	}
}

// ComparePrice reports whether price trades strictly above sma50.
func ComparePrice(price, sma50 float64) SMAPosition {
	if price > sma50 {
		return AboveSMA
	}
	return BelowSMA
}

// RecommendationKey is the lower-cased recommendation as received.
func RecommendationKey(rec string) string {
	return strings.ToLower(rec)
}

// RecommendationVariant maps a recommendation to its badge style. Spacing,
// hyphens and underscores are normalised; unrecognised values are neutral.
func RecommendationVariant(rec string) Variant {
	norm := strings.Join(strings.FieldsFunc(strings.ToLower(rec), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	}), " ")
	if v, ok := knownVariants[norm]; ok {
		return v
	}
	return VariantNeutral
}

// PeerSign is positive for a zero or rising change.
func PeerSign(changePct float64) Polarity {
	if changePct >= 0 {
		return Positive
	}
	return Negative
}
