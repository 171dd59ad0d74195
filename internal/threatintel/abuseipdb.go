package threatintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AbuseIPDBClient looks up the abuse confidence score of a resolved IP. It is
// the only source that needs DNS resolution; when resolution fails upstream
// the waterfall skips it entirely.
type AbuseIPDBClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewAbuseIPDBClient builds a client with the given endpoint and timeout.
func NewAbuseIPDBClient(apiKey, apiURL string, timeout time.Duration) *AbuseIPDBClient {
	return &AbuseIPDBClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

const abuseIPDBMinScore = 50

type abuseIPDBData struct {
	IPAddress            string `json:"ipAddress"`
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	TotalReports         int    `json:"totalReports"`
	UsageType            string `json:"usageType"`
}

type abuseIPDBResponse struct {
	Data abuseIPDBData `json:"data"`
}

// Check reports on the reputation of ip, attributing the verdict to domain.
// It never returns an error; see URLScanClient.Check.
func (s *AbuseIPDBClient) Check(ctx context.Context, domain, ip string) Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, nil)
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceAbuseIPDB,
			Info: fmt.Sprintf("AbuseIPDB request build failed for %s: %v", ip, err)}
	}
	params := url.Values{}
	params.Set("ipAddress", ip)
	params.Set("maxAgeInDays", "365")
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceAbuseIPDB,
			Info: fmt.Sprintf("AbuseIPDB connection error for %s: %v", ip, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{Domain: domain, Malicious: false, Source: SourceAbuseIPDB,
			Info: fmt.Sprintf("AbuseIPDB HTTP %d for %s", resp.StatusCode, ip)}
	}

	var parsed abuseIPDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Verdict{Domain: domain, Malicious: false, Source: SourceAbuseIPDB,
			Info: fmt.Sprintf("AbuseIPDB response decode failed for %s: %v", ip, err)}
	}

	data := parsed.Data
	usage := data.UsageType
	if usage == "" {
		usage = "unknown"
	}
	return Verdict{
		Domain:    domain,
		Malicious: data.AbuseConfidenceScore >= abuseIPDBMinScore,
		Source:    SourceAbuseIPDB,
		Info: fmt.Sprintf("IP %s reported %d time(s). Score: %d. Usage: %s",
			data.IPAddress, data.TotalReports, data.AbuseConfidenceScore, usage),
	}
}
