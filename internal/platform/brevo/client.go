package brevo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yungbote/imtrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

const sendPath = "/v3/smtp/email"

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey      string `yaml:"api_key" env:"BREVO_API_KEY"`
	BaseURL     string `yaml:"base_url" env:"BREVO_BASE_URL" env-default:"https://api.brevo.com"`
	SenderEmail string `yaml:"sender_email" env:"BREVO_SENDER_EMAIL"`
	SenderName  string `yaml:"sender_name" env:"BREVO_SENDER_NAME"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.SenderEmail) != ""
}

// New builds a client with no request timeout and no retries; the caller
// falls back to another transport instead.
func New(log *logger.Logger, cfg Config) (Client, error) {
	return NewWithHTTPClient(log, cfg, &http.Client{})
}

func NewWithHTTPClient(log *logger.Logger, cfg Config, hc *http.Client) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing BREVO_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.brevo.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if hc == nil {
		hc = &http.Client{}
	}
	return &client{
		log:        log.With("client", "BrevoClient"),
		cfg:        cfg,
		httpClient: hc,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Attachment struct {
	Filename string
	Content  []byte
}

type SendEmailRequest struct {
	Sender      EmailAddress
	To          []EmailAddress
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

type sendRequest struct {
	Sender      EmailAddress      `json:"sender"`
	To          []EmailAddress    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

type brevoAttachment struct {
	Content string `json:"content"`
	Name    string `json:"name"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "brevo: <nil error>"
	}
	if strings.TrimSpace(e.Message) != "" {
		return fmt.Sprintf("brevo http %d: %s", e.StatusCode, e.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("brevo http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("brevo client unavailable")
	}
	if strings.TrimSpace(req.Sender.Email) == "" {
		req.Sender.Email = c.cfg.SenderEmail
		if strings.TrimSpace(req.Sender.Name) == "" {
			req.Sender.Name = c.cfg.SenderName
		}
	}
	req.Sender.Email = strings.TrimSpace(req.Sender.Email)
	req.Sender.Name = strings.TrimSpace(req.Sender.Name)
	req.Subject = strings.TrimSpace(req.Subject)

	if req.Sender.Email == "" {
		return nil, fmt.Errorf("brevo: sender email required (or set BREVO_SENDER_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("brevo: To required")
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("brevo: Subject required")
	}
	if strings.TrimSpace(req.HTML) == "" && strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("brevo: HTML or Text content required")
	}

	atts, err := buildAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}
	wire := sendRequest{
		Sender:      req.Sender,
		To:          req.To,
		Subject:     req.Subject,
		HTMLContent: req.HTML,
		TextContent: req.Text,
		Attachment:  atts,
	}

	resp, raw, err := c.do(ctx, http.MethodPost, sendPath, wire)
	if err != nil {
		return nil, err
	}
	out := &SendEmailResult{StatusCode: resp.StatusCode}
	var sr sendResponse
	if json.Unmarshal(raw, &sr) == nil {
		out.MessageID = strings.TrimSpace(sr.MessageID)
	}
	c.log.Debug("Brevo email accepted", "message_id", out.MessageID, "recipients", len(req.To))
	return out, nil
}

func buildAttachments(in []Attachment) ([]brevoAttachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]brevoAttachment, 0, len(in))
	for _, a := range in {
		fn := strings.TrimSpace(a.Filename)
		if fn == "" {
			return nil, fmt.Errorf("brevo: attachment filename required")
		}
		if len(a.Content) == 0 {
			return nil, fmt.Errorf("brevo: attachment %q missing content", fn)
		}
		out = append(out, brevoAttachment{
			Content: base64.StdEncoding.EncodeToString(a.Content),
			Name:    fn,
		})
	}
	return out, nil
}

// do sends once. Only 201 Created counts as accepted.
func (c *client) do(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode != http.StatusCreated {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			he.Code = er.Code
			he.Message = er.Message
		}
		return resp, raw, he
	}
	return resp, raw, nil
}
