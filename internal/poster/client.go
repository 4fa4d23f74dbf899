package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/services"
)

const (
	component  = "poster"
	tweetsPath = "/2/tweets"
	userAgent  = "quill/0.1.0"
)

// Result is the API's confirmation of a published post.
type Result struct {
	ID   string
	Text string
}

// Credentials are the OAuth 1.0a consumer and access token pairs.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Credentials Credentials
	// DailyCap limits posts per rolling day. Zero disables the local cap.
	DailyCap int
	// HTTPClient is the transport the signer wraps; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Client posts text through the X API v2.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// RateLimitError carries the server's hint for when posting may resume.
type RateLimitError struct {
	// Reset is zero when the response carried no x-rate-limit-reset header.
	Reset time.Time
	// Local is set when the daily cap rejected the post without calling the API.
	Local bool
}

func (e *RateLimitError) Error() string {
	switch {
	case e.Local && e.Reset.IsZero():
		return "daily post cap reached"
	case e.Local:
		return fmt.Sprintf("daily post cap reached, next post at %s", e.Reset.UTC().Format(time.RFC3339))
	case e.Reset.IsZero():
		return "too many requests"
	default:
		return fmt.Sprintf("too many requests, resets at %s", e.Reset.UTC().Format(time.RFC3339))
	}
}

func (e *RateLimitError) Unwrap() error { return services.ErrRateLimited }

// New builds a client from explicit options.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "base url is required", nil)
	}
	creds := opts.Credentials
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "all four OAuth credentials are required", nil)
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth1.HTTPClient, opts.HTTPClient)
	}
	signer := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	client := &Client{
		endpoint: base + tweetsPath,
		http:     signer.Client(ctx, token),
		logger:   logging.NewComponentLogger(logger, component),
	}
	if opts.DailyCap > 0 {
		client.limiter = rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(opts.DailyCap)), opts.DailyCap)
	}
	return client, nil
}

// FromConfig builds a client from the [x] configuration section.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return New(Options{
		BaseURL: cfg.X.BaseURL,
		Credentials: Credentials{
			APIKey:            cfg.X.APIKey,
			APISecret:         cfg.X.APISecret,
			AccessToken:       cfg.X.AccessToken,
			AccessTokenSecret: cfg.X.AccessTokenSecret,
		},
		DailyCap: cfg.X.DailyCap,
	}, logger)
}

type createRequest struct {
	Text string `json:"text"`
}

type createResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Ready reports whether the local daily cap leaves room for a post without
// spending any of it. A *RateLimitError with Local set carries the time the
// next post becomes possible.
func (c *Client) Ready() error {
	if c.limiter == nil {
		return nil
	}
	now := time.Now()
	tokens := c.limiter.TokensAt(now)
	if tokens >= 1 {
		return nil
	}
	wait := time.Duration((1 - tokens) / float64(c.limiter.Limit()) * float64(time.Second))
	return &RateLimitError{Local: true, Reset: now.Add(wait)}
}

// Post publishes text verbatim and returns the remote post id.
func (c *Client) Post(ctx context.Context, text string) (*Result, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, &RateLimitError{Local: true}
	}

	body, err := json.Marshal(createRequest{Text: text})
	if err != nil {
		return nil, services.Wrap(services.ErrPostFailed, component, "post", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrPostFailed, component, "post", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrPostFailed, component, "post", "send request", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		rlErr := &RateLimitError{Reset: parseReset(resp.Header.Get("x-rate-limit-reset"))}
		c.logger.Debug("rate limit headers",
			logging.String("limit", resp.Header.Get("x-rate-limit-limit")),
			logging.String("remaining", resp.Header.Get("x-rate-limit-remaining")),
			logging.String("reset", resp.Header.Get("x-rate-limit-reset")),
		)
		return nil, rlErr
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrPostFailed, component, "post",
			fmt.Sprintf("api returned %d: %s", resp.StatusCode, describeFailure(payload)), nil)
	}

	var decoded createResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, services.Wrap(services.ErrPostFailed, component, "post", "decode response", err)
	}
	if decoded.Data.ID == "" {
		return nil, services.Wrap(services.ErrPostFailed, component, "post", "response carried no post id", nil)
	}
	return &Result{ID: decoded.Data.ID, Text: decoded.Data.Text}, nil
}

// ResetHint returns when a rate limit lifts, if err carries that hint.
func ResetHint(err error) (time.Time, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) && !rlErr.Reset.IsZero() {
		return rlErr.Reset, true
	}
	return time.Time{}, false
}

func parseReset(raw string) time.Time {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}

func describeFailure(payload []byte) string {
	var decoded createResponse
	if err := json.Unmarshal(payload, &decoded); err == nil {
		if decoded.Detail != "" {
			return decoded.Detail
		}
		if len(decoded.Errors) > 0 && decoded.Errors[0].Message != "" {
			return decoded.Errors[0].Message
		}
		if decoded.Title != "" {
			return decoded.Title
		}
	}
	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "empty response"
	}
	return text
}
