package paynow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moosoltadiwa/localpay-connect/internal/ledger"
)

func testClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		IntegrationID:  "12345",
		IntegrationKey: "secret-key",
		InitiateURL:    endpoint,
		RemoteURL:      endpoint,
		ResultURL:      "https://panel.example/api/v1/payments/paynow/webhook",
		ReturnURL:      "https://panel.example/add-funds?status=success",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestInitiateMobileSendsSignedForm(t *testing.T) {
	var got map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got = r.PostForm
		w.Write([]byte("status=Ok&pollurl=https%3A%2F%2Fwww.paynow.co.zw%2Fpoll%2F123&instructions=Check+your+phone"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	resp, err := c.InitiateMobile(context.Background(), "DEP-1", "user@example.com", "263771234567", MethodEcocash, 1050)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if !resp.Accepted() {
		t.Fatalf("expected acceptance, got status %q", resp.Status)
	}
	if resp.PollURL != "https://www.paynow.co.zw/poll/123" {
		t.Fatalf("unexpected poll url: %q", resp.PollURL)
	}
	if resp.Instructions != "Check your phone" {
		t.Fatalf("unexpected instructions: %q", resp.Instructions)
	}

	for field, want := range map[string]string{
		"id":        "12345",
		"reference": "DEP-1",
		"amount":    "10.50",
		"phone":     "263771234567",
		"method":    "ecocash",
		"status":    "Message",
	} {
		if len(got[field]) == 0 || got[field][0] != want {
			t.Fatalf("field %s: expected %q, got %v", field, want, got[field])
		}
	}
	wantHash := signature([]string{
		"12345", "DEP-1", "user@example.com", "10.50", "Wallet Top Up",
		"https://panel.example/api/v1/payments/paynow/webhook", "Message",
		"263771234567", "ecocash",
	}, "secret-key")
	if len(got["hash"]) == 0 || got["hash"][0] != wantHash {
		t.Fatalf("hash mismatch: got %v", got["hash"])
	}
}

func TestInitiateMobileRejectsUnknownMethod(t *testing.T) {
	c := testClient(t, "http://unused")
	if _, err := c.InitiateMobile(context.Background(), "DEP-1", "u@e.com", "263771234567", "telecash", 100); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}

func TestInitiateWebIncludesReturnURL(t *testing.T) {
	var got map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = r.PostForm
		w.Write([]byte("status=Ok&browserurl=https%3A%2F%2Fwww.paynow.co.zw%2Fpay%2Fabc&pollurl=https%3A%2F%2Fwww.paynow.co.zw%2Fpoll%2Fabc"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	resp, err := c.InitiateWeb(context.Background(), "DEP-2", "user@example.com", 2500)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if resp.BrowserURL != "https://www.paynow.co.zw/pay/abc" {
		t.Fatalf("unexpected browser url: %q", resp.BrowserURL)
	}
	if len(got["returnurl"]) == 0 || got["returnurl"][0] != "https://panel.example/add-funds?status=success" {
		t.Fatalf("missing return url: %v", got["returnurl"])
	}
}

func TestInitiateRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("status=Error&error=Invalid+integration+id"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	resp, err := c.InitiateWeb(context.Background(), "DEP-3", "user@example.com", 100)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if resp.Accepted() {
		t.Fatal("expected rejection")
	}
	if resp.Error != "Invalid integration id" {
		t.Fatalf("unexpected error text: %q", resp.Error)
	}
}

func TestVerifyCallback(t *testing.T) {
	c := testClient(t, "http://unused")

	u := StatusUpdate{
		Reference:       "DEP-1",
		PaynowReference: "889900",
		Amount:          "10.50",
		Status:          "Paid",
		PollURL:         "https://www.paynow.co.zw/poll/123",
	}
	u.Hash = signature([]string{u.Reference, u.PaynowReference, u.Amount, u.Status, u.PollURL}, "secret-key")

	if err := c.VerifyCallback(u); err != nil {
		t.Fatalf("expected valid hash, got %v", err)
	}

	// Lowercase hex must still verify.
	lower := u
	lower.Hash = toLower(u.Hash)
	if err := c.VerifyCallback(lower); err != nil {
		t.Fatalf("case-insensitive compare failed: %v", err)
	}

	missing := u
	missing.Hash = ""
	if err := c.VerifyCallback(missing); err != ErrMissingHash {
		t.Fatalf("expected ErrMissingHash, got %v", err)
	}

	tampered := u
	tampered.Amount = "999.00"
	if err := c.VerifyCallback(tampered); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}

	wrongKey := u
	wrongKey.Hash = signature([]string{u.Reference, u.PaynowReference, u.Amount, u.Status, u.PollURL}, "other-key")
	if err := c.VerifyCallback(wrongKey); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash for wrong key, got %v", err)
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'A' && ch <= 'Z' {
			b[i] = ch + 32
		}
	}
	return string(b)
}

func TestParseCallback(t *testing.T) {
	body := "reference=DEP-1&paynowreference=889900&amount=10.50&status=Paid&pollurl=https%3A%2F%2Fwww.paynow.co.zw%2Fpoll%2F123&hash=ABC"
	u, err := ParseCallback(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Reference != "DEP-1" || u.PaynowReference != "889900" || u.Status != "Paid" {
		t.Fatalf("unexpected update: %+v", u)
	}
	if u.PollURL != "https://www.paynow.co.zw/poll/123" {
		t.Fatalf("poll url not decoded: %q", u.PollURL)
	}

	if _, err := ParseCallback("amount=10.50&hash=ABC"); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestMapStatus(t *testing.T) {
	cases := map[string]string{
		"Paid":              ledger.StatusCompleted,
		"paid":              ledger.StatusCompleted,
		"Complete":          ledger.StatusCompleted,
		"completed":         ledger.StatusCompleted,
		"Awaiting Delivery": ledger.StatusCompleted,
		"Delivered":         ledger.StatusCompleted,
		"Cancelled":         ledger.StatusFailed,
		"canceled":          ledger.StatusFailed,
		"Failed":            ledger.StatusFailed,
		"Created":           ledger.StatusPending,
		"Sent":              ledger.StatusPending,
		"pending":           ledger.StatusPending,
		"something else":    ledger.StatusPending,
	}
	for in, want := range cases {
		if got := MapStatus(in); got != want {
			t.Errorf("MapStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0771 234 567": "263771234567",
		"0771234567":   "263771234567",
		"263771234567": "263771234567",
		"771234567":    "263771234567",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		100:   "1.00",
		1050:  "10.50",
		5:     "0.05",
		99999: "999.99",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
