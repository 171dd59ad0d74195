package threatintel

// Source names reported in verdicts. Cache and NoSignal are synthetic; the
// rest identify the external service that produced the verdict.
const (
	SourceCache     = "Cache"
	SourceURLScan   = "URLScan.io"
	SourceThreatFox = "ThreatFox"
	SourceAbuseIPDB = "AbuseIPDB"
	SourceNoSignal  = "NoSignal"
)

// Verdict is the outcome of a reputation check for a domain. Verdicts are
// immutable once produced; cached entries replay the original explanation
// under the Cache source.
type Verdict struct {
	Domain    string `json:"domain"`
	Malicious bool   `json:"malicious"`
	Info      string `json:"info"`
	Source    string `json:"source"`
}
