package brevo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

func TestSendSuccessOn201(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sendPath || r.Method != http.MethodPost {
			http.Error(w, "bad route", http.StatusNotFound)
			return
		}
		if r.Header.Get("api-key") != "k" {
			http.Error(w, "no key", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<m1@brevo>"}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/", SenderEmail: "im@school.edu"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Send(context.Background(), SendEmailRequest{
		To:          []EmailAddress{{Email: "a@x.edu"}, {Email: "b@x.edu"}},
		Subject:     " Hello ",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Filename: "CERT-1.pdf", Content: []byte("%PDF")}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.StatusCode != http.StatusCreated || res.MessageID != "<m1@brevo>" {
		t.Fatalf("result = %+v", res)
	}
	if got.Sender.Email != "im@school.edu" || got.Subject != "Hello" || len(got.To) != 2 {
		t.Fatalf("wire = %+v", got)
	}
	if len(got.Attachment) != 1 || got.Attachment[0].Name != "CERT-1.pdf" {
		t.Fatalf("attachments = %+v", got.Attachment)
	}
	if dec, _ := base64.StdEncoding.DecodeString(got.Attachment[0].Content); string(dec) != "%PDF" {
		t.Fatalf("attachment content = %q", dec)
	}
}

func TestSendTreatsOtherSuccessCodesAsFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, SenderEmail: "im@school.edu"})
	_, err := c.Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "a@x.edu"}}, Subject: "s", HTML: "h",
	})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusOK {
		t.Fatalf("expected HTTPError 200, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected a single attempt, hits=%d", hits)
	}
}

func TestSendParsesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter","message":"sender is invalid"}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, SenderEmail: "im@school.edu"})
	_, err := c.Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "a@x.edu"}}, Subject: "s", HTML: "h",
	})
	var he *HTTPError
	if !errors.As(err, &he) || he.Code != "invalid_parameter" || he.HTTPStatusCode() != 400 {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSendValidates(t *testing.T) {
	c, _ := New(logger.Nop(), Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	cases := []SendEmailRequest{
		{To: []EmailAddress{{Email: "a@x.edu"}}, Subject: "s", HTML: "h"},
		{Sender: EmailAddress{Email: "s@x.edu"}, Subject: "s", HTML: "h"},
		{Sender: EmailAddress{Email: "s@x.edu"}, To: []EmailAddress{{Email: "a@x.edu"}}, HTML: "h"},
		{Sender: EmailAddress{Email: "s@x.edu"}, To: []EmailAddress{{Email: "a@x.edu"}}, Subject: "s"},
		{Sender: EmailAddress{Email: "s@x.edu"}, To: []EmailAddress{{Email: "a@x.edu"}}, Subject: "s", HTML: "h",
			Attachments: []Attachment{{Filename: "x.pdf"}}},
	}
	for i, req := range cases {
		if _, err := c.Send(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error")
	}
	if (Config{APIKey: "k"}).Enabled() {
		t.Fatalf("sender email should be required for Enabled")
	}
}
