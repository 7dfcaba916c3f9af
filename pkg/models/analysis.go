// Package models defines the wire types exchanged with the analysis engine.
package models

// AnalyzeRequest is the body sent to the analysis engine.
type AnalyzeRequest struct {
	CompanyName string `json:"company_name"`
}

// Indicators holds the technical indicators computed by the engine.
type Indicators struct {
	RSI        float64 `json:"rsi"`
	SMA50      float64 `json:"sma50"`
	EMA20      float64 `json:"ema20"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal,omitempty"`
}

// Headline is a news item attached to an analysis.
type Headline struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	SentimentImpact string `json:"sentiment_impact,omitempty"` // optional one-line impact note
}

// Peer is a sector rival with its daily move.
type Peer struct {
	Ticker    string   `json:"ticker"`
	ChangePct float64  `json:"change_pct"`
	Price     float64  `json:"price,omitempty"`
	PE        *float64 `json:"pe,omitempty"`
}

// AnalysisResult is the success payload returned by the analysis engine.
// It is treated as read-only once received.
type AnalysisResult struct {
	Ticker            string     `json:"ticker"`
	CompanyName       string     `json:"company_name"`
	LatestPrice       float64    `json:"latest_price"`
	LSTMTrend         string     `json:"lstm_trend"`
	UnifiedAlphaScore float64    `json:"unified_alpha_score"` // 0-100
	Recommendation    string     `json:"recommendation"`
	Indicators        Indicators `json:"indicators"`
	ClaudeSummary     string     `json:"claude_summary"`
	KeyHeadlines      []Headline `json:"key_headlines"`
	Peers             []Peer     `json:"peers"`

	NewsSentimentScore *float64 `json:"news_sentiment_score,omitempty"` // -1 to 1
	BusinessSummary    string   `json:"business_summary,omitempty"`
	SectorPEAvg        *float64 `json:"sector_pe_avg,omitempty"`
}

// AnalyzeResponse is the raw engine response. A non-empty Error means the
// engine rejected the request and the embedded result must be ignored.
type AnalyzeResponse struct {
	AnalysisResult
	Error string `json:"error,omitempty"`
}

// ServiceError is an error reported by the analysis engine in the body of a
// transport-level success.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}
