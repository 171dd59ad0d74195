package threatintel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestTimeout = 2 * time.Second

func TestURLScanClient_PhishingTag(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("API-Key")
		_ = json.NewEncoder(w).Encode(urlscanResponse{Results: []urlscanResult{
			{Task: urlscanTask{Tags: []string{"Phishing"}, Source: "certstream"}},
		}})
	}))
	defer srv.Close()

	client := NewURLScanClient("test-key", srv.URL, defaultTestTimeout)
	verdict := client.Check(context.Background(), "bad.example")

	assert.True(t, verdict.Malicious)
	assert.Equal(t, SourceURLScan, verdict.Source)
	assert.Contains(t, verdict.Info, "certstream")
	assert.Equal(t, "page.domain:bad.example AND date:>now-90d", gotQuery)
	assert.Equal(t, "test-key", gotKey)
}

func TestURLScanClient_SuspiciousSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(urlscanResponse{Results: []urlscanResult{
			{Task: urlscanTask{Tags: nil, Source: "openphish-suspicious"}},
		}})
	}))
	defer srv.Close()

	verdict := NewURLScanClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "bad.example")
	assert.True(t, verdict.Malicious)
}

func TestURLScanClient_CleanResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(urlscanResponse{Results: []urlscanResult{
			{Task: urlscanTask{Tags: []string{"newly-registered"}, Source: "certstream"}},
		}})
	}))
	defer srv.Close()

	verdict := NewURLScanClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "good.example")
	assert.False(t, verdict.Malicious)
	assert.Equal(t, SourceURLScan, verdict.Source)
}

func TestURLScanClient_HTTPErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	verdict := NewURLScanClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "any.example")
	assert.False(t, verdict.Malicious)
	assert.Equal(t, SourceURLScan, verdict.Source)
	assert.Contains(t, verdict.Info, "429")
}

func TestURLScanClient_ConnectionErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	verdict := NewURLScanClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "any.example")
	assert.False(t, verdict.Malicious)
	assert.Contains(t, verdict.Info, "connection error")
}

func TestThreatFoxClient_HighestConfidenceIOCWins(t *testing.T) {
	var gotBody threatFoxQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(threatFoxResponse{
			QueryStatus: "ok",
			Data: []threatFoxIOC{
				{IOC: "bad.example", ThreatType: "botnet_cc", MalwarePrintable: "Mirai", ConfidenceLevel: 60},
				{IOC: "bad.example", ThreatType: "payload_delivery", MalwarePrintable: "AgentTesla", ConfidenceLevel: 90},
				{IOC: "bad.example", ThreatType: "botnet_cc", MalwarePrintable: "Qakbot", ConfidenceLevel: 40},
			},
		})
	}))
	defer srv.Close()

	verdict := NewThreatFoxClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "bad.example")

	assert.True(t, verdict.Malicious)
	assert.Equal(t, SourceThreatFox, verdict.Source)
	assert.Contains(t, verdict.Info, "AgentTesla")
	assert.Contains(t, verdict.Info, "90")
	assert.Equal(t, "search_ioc", gotBody.Query)
	assert.Equal(t, "bad.example", gotBody.SearchTerm)
	assert.True(t, gotBody.ExactMatch)
}

func TestThreatFoxClient_LowConfidenceIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(threatFoxResponse{
			QueryStatus: "ok",
			Data:        []threatFoxIOC{{IOC: "meh.example", ConfidenceLevel: 25}},
		})
	}))
	defer srv.Close()

	verdict := NewThreatFoxClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "meh.example")
	assert.False(t, verdict.Malicious)
	assert.Contains(t, verdict.Info, "confidence >= 50")
}

func TestThreatFoxClient_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(threatFoxResponse{QueryStatus: "no_result"})
	}))
	defer srv.Close()

	verdict := NewThreatFoxClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "clean.example")
	assert.False(t, verdict.Malicious)
}

func TestThreatFoxClient_MalformedPayloadDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	verdict := NewThreatFoxClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "any.example")
	assert.False(t, verdict.Malicious)
	assert.Contains(t, verdict.Info, "decode failed")
}

func TestAbuseIPDBClient_HighScore(t *testing.T) {
	var gotIP, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = r.URL.Query().Get("ipAddress")
		gotKey = r.Header.Get("Key")
		_ = json.NewEncoder(w).Encode(abuseIPDBResponse{Data: abuseIPDBData{
			IPAddress: "203.0.113.7", AbuseConfidenceScore: 88, TotalReports: 142, UsageType: "Data Center",
		}})
	}))
	defer srv.Close()

	verdict := NewAbuseIPDBClient("abuse-key", srv.URL, defaultTestTimeout).Check(context.Background(), "bad.example", "203.0.113.7")

	assert.True(t, verdict.Malicious)
	assert.Equal(t, SourceAbuseIPDB, verdict.Source)
	assert.Equal(t, "bad.example", verdict.Domain)
	assert.Contains(t, verdict.Info, "203.0.113.7")
	assert.Equal(t, "203.0.113.7", gotIP)
	assert.Equal(t, "abuse-key", gotKey)
}

func TestAbuseIPDBClient_LowScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(abuseIPDBResponse{Data: abuseIPDBData{
			IPAddress: "198.51.100.1", AbuseConfidenceScore: 3, TotalReports: 1,
		}})
	}))
	defer srv.Close()

	verdict := NewAbuseIPDBClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "ok.example", "198.51.100.1")
	assert.False(t, verdict.Malicious)
}

func TestAbuseIPDBClient_HTTPErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	verdict := NewAbuseIPDBClient("k", srv.URL, defaultTestTimeout).Check(context.Background(), "x.example", "192.0.2.1")
	assert.False(t, verdict.Malicious)
	assert.Contains(t, verdict.Info, "401")
}
