package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"storegate/internal/domain"
	"storegate/internal/usecase"
)

const defaultTimeout = 3 * time.Second

// Client calls the external licensing authority and normalizes every
// possible outcome into the reason-code taxonomy. This is the only place
// classification happens; nothing downstream re-derives it. Check is total:
// network errors, timeouts and malformed bodies all come back as a result
// with reason unreachable, never as a Go error and never as key_invalid.
type Client struct {
	baseURL    string
	apiKey     string
	licenseKey string
	httpClient *http.Client
	now        func() time.Time
}

type Config struct {
	BaseURL    string
	APIKey     string
	LicenseKey string
	Timeout    time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		licenseKey: cfg.LicenseKey,
		httpClient: httpClient,
		now:        now,
	}
}

type verifyRequest struct {
	Domain string `json:"domain"`
	Key    string `json:"key,omitempty"`
}

type verifyResponse struct {
	Valid            bool                   `json:"valid"`
	GloballyVerified bool                   `json:"globally_verified"`
	ReasonCode       string                 `json:"reason_code"`
	Client           *domain.ClientSnapshot `json:"client,omitempty"`
}

// Check verifies one domain against the authority.
func (c *Client) Check(ctx context.Context, dom string) domain.VerificationResult {
	key := domain.NormalizeDomain(dom)
	result := domain.VerificationResult{
		Domain:    key,
		Reason:    domain.ReasonUnreachable,
		CheckedAt: c.now().UTC(),
	}
	if key == "" || c.baseURL == "" {
		return result
	}

	payload, err := json.Marshal(verifyRequest{Domain: key, Key: c.licenseKey})
	if err != nil {
		return result
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/licenses/verify", bytes.NewReader(payload))
	if err != nil {
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result
	}
	defer resp.Body.Close()

	return c.classify(resp, result)
}

// classify maps the authority's transport-level response onto the taxonomy.
// The response is untrusted input; anything that does not decode cleanly is
// unreachable, not a license verdict.
func (c *Client) classify(resp *http.Response, result domain.VerificationResult) domain.VerificationResult {
	var body verifyResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusOK:
		if decodeErr != nil {
			return result
		}
		result.Valid = body.Valid
		result.GloballyVerified = body.GloballyVerified
		result.Client = body.Client
		if body.Valid {
			result.Reason = domain.ReasonOK
		} else {
			result.Reason = reasonFromBody(body.ReasonCode, domain.ReasonKeyInvalid)
		}
		return result

	case http.StatusNotFound:
		result.Reason = domain.ReasonKeyInvalid
		return result

	case http.StatusForbidden:
		result.Reason = reasonFromBody(body.ReasonCode, domain.ReasonDomainMismatch)
		if result.Reason != domain.ReasonDomainMismatch && result.Reason != domain.ReasonStatusInactive {
			result.Reason = domain.ReasonStatusInactive
		}
		result.Client = body.Client
		return result

	case http.StatusPaymentRequired:
		result.Reason = reasonFromBody(body.ReasonCode, domain.ReasonSubscriptionInactive)
		if result.Reason != domain.ReasonSubscriptionInactive && result.Reason != domain.ReasonSubscriptionExpired {
			result.Reason = domain.ReasonSubscriptionInactive
		}
		result.Client = body.Client
		return result

	default:
		return result
	}
}

func reasonFromBody(code string, fallback domain.ReasonCode) domain.ReasonCode {
	switch domain.ReasonCode(code) {
	case domain.ReasonKeyInvalid, domain.ReasonDomainMismatch, domain.ReasonStatusInactive,
		domain.ReasonSubscriptionInactive, domain.ReasonSubscriptionExpired:
		return domain.ReasonCode(code)
	default:
		return fallback
	}
}

var _ usecase.Authority = (*Client)(nil)
