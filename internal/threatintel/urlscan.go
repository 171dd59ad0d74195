package threatintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// URLScanClient queries the urlscan.io search API for recent scans of a
// domain. A domain is flagged when any scan from the last 90 days carries a
// phishing tag or a phishing/suspicious scan source.
type URLScanClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewURLScanClient builds a client with the given endpoint and timeout.
func NewURLScanClient(apiKey, apiURL string, timeout time.Duration) *URLScanClient {
	return &URLScanClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

type urlscanTask struct {
	Tags   []string `json:"tags"`
	Source string   `json:"source"`
}

type urlscanResult struct {
	Task urlscanTask `json:"task"`
}

type urlscanResponse struct {
	Results []urlscanResult `json:"results"`
}

func phishingIndicated(result urlscanResult) bool {
	for _, tag := range result.Task.Tags {
		if strings.Contains(strings.ToLower(tag), "phish") {
			return true
		}
	}
	source := strings.ToLower(result.Task.Source)
	return strings.Contains(source, "phish") || strings.Contains(source, "suspicious")
}

// Check never returns an error: network, HTTP and decode failures all map to
// a non-malicious verdict carrying the failure text, so a source outage
// degrades the waterfall instead of aborting it.
func (s *URLScanClient) Check(ctx context.Context, domain string) Verdict {
	query := fmt.Sprintf("page.domain:%s AND date:>now-90d", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, nil)
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceURLScan,
			Info: fmt.Sprintf("URLScan.io request build failed for %q: %v", domain, err)}
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("size", "10")
	req.URL.RawQuery = params.Encode()
	req.Header.Set("API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceURLScan,
			Info: fmt.Sprintf("URLScan.io connection error for %q: %v", domain, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{Domain: domain, Malicious: false, Source: SourceURLScan,
			Info: fmt.Sprintf("URLScan.io HTTP %d for %q", resp.StatusCode, domain)}
	}

	var parsed urlscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceURLScan,
			Info: fmt.Sprintf("URLScan.io response decode failed for %q: %v", domain, err)}
	}

	for _, result := range parsed.Results {
		if phishingIndicated(result) {
			source := result.Task.Source
			if source == "" {
				source = "unknown"
			}
			return Verdict{Domain: domain, Malicious: true, Source: SourceURLScan,
				Info: fmt.Sprintf("Flagged as suspicious/phishing on URLScan.io. Scan source: %s. Tags: %v", source, result.Task.Tags)}
		}
	}

	return Verdict{Domain: domain, Malicious: false, Source: SourceURLScan,
		Info: fmt.Sprintf("Domain %q not flagged in recent URLScan.io scans", domain)}
}
