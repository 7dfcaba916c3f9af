package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

func engineServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotBody models.AnalyzeRequest
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"TCS.NS","company_name":"TCS","latest_price":4012.5,
			"lstm_trend":"Sideways","unified_alpha_score":48,"recommendation":"HOLD",
			"indicators":{"rsi":50,"sma50":4000,"ema20":4005,"macd":1.2},
			"claude_summary":"Range-bound.","key_headlines":[],"peers":[]}`))
	})

	c := NewClient(srv.URL+"/analyze", 5*time.Second)
	res, err := c.Analyze(context.Background(), "TCS.NS")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if gotBody.CompanyName != "TCS.NS" {
		t.Errorf("request company_name: got %q", gotBody.CompanyName)
	}
	if res.Ticker != "TCS.NS" || res.UnifiedAlphaScore != 48 || res.Recommendation != "HOLD" {
		t.Errorf("result: got %+v", res)
	}
}

func TestAnalyzeServerReportedError(t *testing.T) {
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"Ticker not found for this company"}`))
	})

	_, err := NewClient(srv.URL, 5*time.Second).Analyze(context.Background(), "NOPE")
	var svcErr *models.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("got %v, want *models.ServiceError", err)
	}
	if svcErr.Message != "Ticker not found for this company" {
		t.Errorf("Message: got %q", svcErr.Message)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Error("server-reported error must not be classified as unreachable")
	}
}

func TestAnalyzeEmptyErrorFieldIsSuccess(t *testing.T) {
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"INFY.NS","error":"","lstm_trend":"Bullish"}`))
	})

	res, err := NewClient(srv.URL, 5*time.Second).Analyze(context.Background(), "INFY.NS")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Ticker != "INFY.NS" {
		t.Errorf("Ticker: got %q", res.Ticker)
	}
}

func TestAnalyzeTransportFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status 500", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
		}},
		{"status 400", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"Company name is required"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway</html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := engineServer(t, tt.handler)
			_, err := NewClient(srv.URL, 5*time.Second).Analyze(context.Background(), "TCS.NS")
			if !errors.Is(err, ErrUnreachable) {
				t.Errorf("got %v, want ErrUnreachable", err)
			}
		})
	}
}

func TestAnalyzeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 2*time.Second).Analyze(context.Background(), "TCS.NS")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("got %v, want ErrUnreachable", err)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, err := NewClient(srv.URL, 100*time.Millisecond).Analyze(context.Background(), "TCS.NS")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("got %v, want ErrUnreachable", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout not honoured: took %v", elapsed)
	}
}

func TestAnalyzeContextCancelled(t *testing.T) {
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, 5*time.Second).Analyze(ctx, "TCS.NS")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("got %v, want ErrUnreachable", err)
	}
}
