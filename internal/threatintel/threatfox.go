package threatintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ThreatFoxClient searches the abuse.ch ThreatFox IOC feed for exact-match
// indicators against a domain. Only IOCs with confidence >= 50 count; when
// several qualify, the highest-confidence one is reported.
type ThreatFoxClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewThreatFoxClient builds a client with the given endpoint and timeout.
func NewThreatFoxClient(apiKey, apiURL string, timeout time.Duration) *ThreatFoxClient {
	return &ThreatFoxClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

const threatFoxMinConfidence = 50

type threatFoxQuery struct {
	Query      string `json:"query"`
	SearchTerm string `json:"search_term"`
	ExactMatch bool   `json:"exact_match"`
}

type threatFoxIOC struct {
	IOC              string `json:"ioc"`
	ThreatType       string `json:"threat_type"`
	MalwarePrintable string `json:"malware_printable"`
	ConfidenceLevel  int    `json:"confidence_level"`
}

type threatFoxResponse struct {
	QueryStatus string         `json:"query_status"`
	Data        []threatFoxIOC `json:"data"`
}

// Check never returns an error; see URLScanClient.Check.
func (s *ThreatFoxClient) Check(ctx context.Context, domain string) Verdict {
	payload, err := json.Marshal(threatFoxQuery{
		Query:      "search_ioc",
		SearchTerm: domain,
		ExactMatch: true,
	})
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox request build failed for %q: %v", domain, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox request build failed for %q: %v", domain, err)}
	}
	req.Header.Set("API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox connection error for %q: %v", domain, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox HTTP %d for %q", resp.StatusCode, domain)}
	}

	var parsed threatFoxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox response decode failed for %q: %v", domain, err)}
	}

	switch parsed.QueryStatus {
	case "ok":
		var best *threatFoxIOC
		for i := range parsed.Data {
			ioc := &parsed.Data[i]
			if ioc.ConfidenceLevel < threatFoxMinConfidence {
				continue
			}
			if best == nil || ioc.ConfidenceLevel > best.ConfidenceLevel {
				best = ioc
			}
		}
		if best != nil {
			return Verdict{Domain: domain, Malicious: true, Source: SourceThreatFox,
				Info: fmt.Sprintf("IOC %q reported (type: %s, malware: %s). Confidence: %d",
					best.IOC, best.ThreatType, best.MalwarePrintable, best.ConfidenceLevel)}
		}
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("Domain %q has no IOC with confidence >= %d on ThreatFox", domain, threatFoxMinConfidence)}
	case "no_result":
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("Domain %q not found on ThreatFox", domain)}
	default:
		return Verdict{Domain: domain, Malicious: false, Source: SourceThreatFox,
			Info: fmt.Sprintf("ThreatFox query for %q returned status %q", domain, parsed.QueryStatus)}
	}
}
