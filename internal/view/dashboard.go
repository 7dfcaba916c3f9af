// Package view projects an analysis result into the display-ready values
// every front end renders. Projection is pure and recomputed per render.
package view

import (
	"fmt"
	"math"

	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// GaugeCircumference is the stroke length of the alpha gauge circle (r=45).
const GaugeCircumference = 283.0

// HeadlineView is one news item, in payload order.
type HeadlineView struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Impact    string `json:"impact,omitempty"`
	HasImpact bool   `json:"has_impact"`
}

// PeerView is one sector rival, in payload order.
type PeerView struct {
	Ticker     string   `json:"ticker"`
	ChangePct  float64  `json:"change_pct"`
	ChangeText string   `json:"change_text"`
	Sign       Polarity `json:"sign"`
	PriceText  string   `json:"price_text,omitempty"`
	PEText     string   `json:"pe_text,omitempty"`
}

// Dashboard is the derived view model of one AnalysisResult.
type Dashboard struct {
	Ticker      string `json:"ticker"`
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	CompanyName string `json:"company_name"`
	PriceText   string `json:"price_text"`

	Trend         string   `json:"trend"`
	TrendPolarity Polarity `json:"trend_polarity"`

	AlphaScore      float64 `json:"alpha_score"`
	AlphaRounded    int     `json:"alpha_rounded"`
	GaugeFraction   float64 `json:"gauge_fraction"`
	GaugeDashOffset float64 `json:"gauge_dash_offset"`

	Recommendation        string  `json:"recommendation"`
	RecommendationKey     string  `json:"recommendation_key"`
	RecommendationVariant Variant `json:"recommendation_variant"`

	RSI            float64     `json:"rsi"`
	RSIText        string      `json:"rsi_text"`
	RSIZone        RSIZone     `json:"rsi_zone"`
	SMA50Text      string      `json:"sma50_text"`
	SMAPosition    SMAPosition `json:"sma_position"`
	EMA20Text      string      `json:"ema20_text"`
	MACDText       string      `json:"macd_text"`
	MACDSignalText string      `json:"macd_signal_text,omitempty"`

	Summary   string         `json:"summary"`
	Headlines []HeadlineView `json:"headlines"`
	Peers     []PeerView     `json:"peers"`
	PeerCount int            `json:"peer_count"`

	BusinessSummary string `json:"business_summary,omitempty"`
	SentimentText   string `json:"sentiment_text,omitempty"`
	SectorPEText    string `json:"sector_pe_text,omitempty"`
}

// Project derives the dashboard for r. It is total: any result, including a
// zero value, yields a dashboard. Values are not clamped.
func Project(r models.AnalysisResult) Dashboard {
	symbol, exchange := utils.SplitSymbol(r.Ticker)
	fraction := GaugeFraction(r.UnifiedAlphaScore)

	d := Dashboard{
		Ticker:      r.Ticker,
		Symbol:      symbol,
		Exchange:    exchange,
		CompanyName: r.CompanyName,
		PriceText:   utils.FormatINR(r.LatestPrice),

		Trend:         r.LSTMTrend,
		TrendPolarity: ClassifyTrend(r.LSTMTrend),

		AlphaScore:      r.UnifiedAlphaScore,
		AlphaRounded:    roundHalfUp(r.UnifiedAlphaScore),
		GaugeFraction:   fraction,
		GaugeDashOffset: GaugeDashOffset(fraction),

		Recommendation:        r.Recommendation,
		RecommendationKey:     RecommendationKey(r.Recommendation),
		RecommendationVariant: RecommendationVariant(r.Recommendation),

		RSI:         r.Indicators.RSI,
		RSIText:     fmt.Sprintf("%.2f", r.Indicators.RSI),
		RSIZone:     ClassifyRSI(r.Indicators.RSI),
		SMA50Text:   utils.FormatINRWhole(r.Indicators.SMA50),
		SMAPosition: ComparePrice(r.LatestPrice, r.Indicators.SMA50),
		EMA20Text:   utils.FormatINRWhole(r.Indicators.EMA20),
		MACDText:    fmt.Sprintf("%.2f", r.Indicators.MACD),

		Summary:         r.ClaudeSummary,
		Headlines:       make([]HeadlineView, 0, len(r.KeyHeadlines)),
		Peers:           make([]PeerView, 0, len(r.Peers)),
		PeerCount:       len(r.Peers),
		BusinessSummary: r.BusinessSummary,
	}

	if r.Indicators.MACDSignal != 0 {
		d.MACDSignalText = fmt.Sprintf("%.2f", r.Indicators.MACDSignal)
	}
	if r.NewsSentimentScore != nil {
		d.SentimentText = fmt.Sprintf("%+.2f", *r.NewsSentimentScore)
	}
	if r.SectorPEAvg != nil {
		d.SectorPEText = fmt.Sprintf("%.1fx", *r.SectorPEAvg)
	}

	for _, h := range r.KeyHeadlines {
		d.Headlines = append(d.Headlines, HeadlineView{
			Title:     h.Title,
			Link:      h.Link,
			Impact:    h.SentimentImpact,
			HasImpact: h.SentimentImpact != "",
		})
	}

	for _, p := range r.Peers {
		pv := PeerView{
			Ticker:     p.Ticker,
			ChangePct:  p.ChangePct,
			ChangeText: utils.FormatPct(p.ChangePct),
			Sign:       PeerSign(p.ChangePct),
		}
		if p.Price != 0 {
			pv.PriceText = utils.FormatINR(p.Price)
		}
		if p.PE != nil {
			pv.PEText = fmt.Sprintf("%.1fx", *p.PE)
		}
		d.Peers = append(d.Peers, pv)
	}

	return d
}

// GaugeFraction is score/100, unclamped.
func GaugeFraction(score float64) float64 {
	return score / 100
}

// GaugeDashOffset is the stroke-dashoffset that fills fraction of the gauge.
func GaugeDashOffset(fraction float64) float64 {
	return GaugeCircumference - GaugeCircumference*fraction
}

// PeerFootnote is the caption under the peer list.
func PeerFootnote(count int) string {
	return fmt.Sprintf("Relative strength shown against %d major industry rivals.", count)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Footnote is the peer-list caption for d.
func (d Dashboard) Footnote() string {
	return PeerFootnote(d.PeerCount)
}
