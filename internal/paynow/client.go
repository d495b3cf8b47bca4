// Package paynow implements the client side of the Paynow Zimbabwe payment
// gateway protocol: signed form-encoded initiation requests, the flat
// key=value response format, callback hash verification and status polling.
package paynow

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

const (
	// DefaultInitiateURL is Paynow's browser-redirect initiation endpoint.
	DefaultInitiateURL = "https://www.paynow.co.zw/interface/initiatetransaction"
	// DefaultRemoteURL is Paynow's mobile-money push initiation endpoint.
	DefaultRemoteURL = "https://www.paynow.co.zw/interface/remotetransaction"
)

// Mobile money methods accepted by the remote endpoint.
const (
	MethodEcocash  = "ecocash"
	MethodOneMoney = "onemoney"
)

var (
	// ErrMissingHash indicates a callback arrived without a hash field. Kept
	// distinct from ErrInvalidHash: an absent signature and a forged one mean
	// different things operationally.
	ErrMissingHash = errors.New("callback hash missing")

	// ErrInvalidHash indicates the callback hash did not match the payload.
	ErrInvalidHash = errors.New("callback hash invalid")

	// ErrMalformed indicates a callback body lacking the required fields.
	ErrMalformed = errors.New("malformed callback payload")
)

// Config carries the integration credentials and endpoints for one merchant.
type Config struct {
	IntegrationID  string
	IntegrationKey string
	InitiateURL    string
	RemoteURL      string
	// ResultURL is the webhook the gateway calls back asynchronously.
	ResultURL string
	// ReturnURL is where the browser lands after a redirect flow.
	ReturnURL string
}

// Client talks to the Paynow gateway.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient builds a gateway client, filling in default endpoints.
func NewClient(cfg Config) (*Client, error) {
	if cfg.IntegrationID == "" || cfg.IntegrationKey == "" {
		return nil, fmt.Errorf("paynow integration credentials are required")
	}
	if cfg.InitiateURL == "" {
		cfg.InitiateURL = DefaultInitiateURL
	}
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = DefaultRemoteURL
	}
	return &Client{cfg: cfg, httpc: &http.Client{Timeout: 30 * time.Second}}, nil
}

// InitiateResponse is the parsed gateway reply to an initiation request.
type InitiateResponse struct {
	Status       string
	BrowserURL   string
	PollURL      string
	Instructions string
	Error        string
}

// Accepted reports whether the gateway accepted the initiation.
func (r InitiateResponse) Accepted() bool {
	return strings.EqualFold(r.Status, "ok")
}

// StatusUpdate is a parsed callback or poll payload.
type StatusUpdate struct {
	Reference       string
	PaynowReference string
	Amount          string
	Status          string
	PollURL         string
	Hash            string
}

// InitiateWeb starts a browser-redirect payment. Amount is in cents.
func (c *Client) InitiateWeb(ctx context.Context, reference, email string, amount int64) (InitiateResponse, error) {
	fields := [][2]string{
		{"id", c.cfg.IntegrationID},
		{"reference", reference},
		{"authemail", email},
		{"amount", FormatAmount(amount)},
		{"additionalinfo", "Wallet Top Up"},
		{"resulturl", c.cfg.ResultURL},
		{"returnurl", c.cfg.ReturnURL},
		{"status", "Message"},
	}
	return c.post(ctx, c.cfg.InitiateURL, fields)
}

// InitiateMobile starts a push-prompt mobile money payment. Phone must already
// be in international form (see NormalizePhone).
func (c *Client) InitiateMobile(ctx context.Context, reference, email, phone, method string, amount int64) (InitiateResponse, error) {
	if method != MethodEcocash && method != MethodOneMoney {
		return InitiateResponse{}, fmt.Errorf("unsupported mobile method %q", method)
	}
	fields := [][2]string{
		{"id", c.cfg.IntegrationID},
		{"reference", reference},
		{"authemail", email},
		{"amount", FormatAmount(amount)},
		{"additionalinfo", "Wallet Top Up"},
		{"resulturl", c.cfg.ResultURL},
		{"status", "Message"},
		{"phone", phone},
		{"method", method},
	}
	return c.post(ctx, c.cfg.RemoteURL, fields)
}

// Poll re-queries the gateway's poll URL for the current transaction status.
func (c *Client) Poll(ctx context.Context, pollURL string) (StatusUpdate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return StatusUpdate{}, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return StatusUpdate{}, fmt.Errorf("poll gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusUpdate{}, err
	}
	return statusUpdateFrom(ParseFields(string(body))), nil
}

// ParseCallback parses a raw webhook body and enforces the presence of the
// correlation reference and status fields.
func ParseCallback(body string) (StatusUpdate, error) {
	u := statusUpdateFrom(ParseFields(body))
	if u.Reference == "" || u.Status == "" {
		return StatusUpdate{}, ErrMalformed
	}
	return u, nil
}

// VerifyCallback authenticates a callback against the integration key. The
// digest covers the gateway's documented field order; the comparison on the
// hex form is case-insensitive.
func (c *Client) VerifyCallback(u StatusUpdate) error {
	if u.Hash == "" {
		return ErrMissingHash
	}
	expected := signature([]string{u.Reference, u.PaynowReference, u.Amount, u.Status, u.PollURL}, c.cfg.IntegrationKey)
	if !strings.EqualFold(expected, u.Hash) {
		return ErrInvalidHash
	}
	return nil
}

// MapStatus translates the gateway's status vocabulary to the internal one.
// Unrecognized values (created, sent, pending, ...) stay pending: the
// transaction is still awaiting a definitive signal.
func MapStatus(gatewayStatus string) string {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case "paid", "complete", "completed", "awaiting delivery", "delivered":
		return ledger.StatusCompleted
	case "cancelled", "canceled", "failed":
		return ledger.StatusFailed
	default:
		return ledger.StatusPending
	}
}

// NormalizePhone converts a local Zimbabwean number to international form:
// spaces stripped, a leading 0 replaced with the 263 country code.
func NormalizePhone(phone string) string {
	p := strings.ReplaceAll(phone, " ", "")
	switch {
	case strings.HasPrefix(p, "0"):
		return "263" + p[1:]
	case strings.HasPrefix(p, "263"):
		return p
	default:
		return "263" + p
	}
}

// FormatAmount renders cents as the fixed two-decimal string Paynow expects.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParseFields decodes the gateway's flat &-joined key=value format. Keys are
// lowercased; values are URL-decoded.
func ParseFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, pair := range strings.Split(body, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			decoded = value
		}
		fields[strings.ToLower(key)] = decoded
	}
	return fields
}

func (c *Client) post(ctx context.Context, endpoint string, fields [][2]string) (InitiateResponse, error) {
	values := make([]string, 0, len(fields))
	form := url.Values{}
	for _, f := range fields {
		values = append(values, f[1])
		form.Set(f[0], f[1])
	}
	// The hash binds the integration key over the ordered outgoing values.
	form.Set("hash", signature(values, c.cfg.IntegrationKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return InitiateResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return InitiateResponse{}, fmt.Errorf("initiate payment: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return InitiateResponse{}, err
	}

	parsed := ParseFields(string(body))
	out := InitiateResponse{
		Status:       parsed["status"],
		BrowserURL:   parsed["browserurl"],
		PollURL:      parsed["pollurl"],
		Instructions: parsed["instructions"],
		Error:        parsed["error"],
	}
	if out.Status == "" {
		out.Status = "Error"
	}
	return out, nil
}

func statusUpdateFrom(fields map[string]string) StatusUpdate {
	return StatusUpdate{
		Reference:       fields["reference"],
		PaynowReference: fields["paynowreference"],
		Amount:          fields["amount"],
		Status:          fields["status"],
		PollURL:         fields["pollurl"],
		Hash:            fields["hash"],
	}
}

func signature(values []string, integrationKey string) string {
	sum := sha512.Sum512([]byte(strings.Join(values, "") + integrationKey))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
