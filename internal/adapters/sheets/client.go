// Package sheets reads the credential and systems lists published by a
// spreadsheet web script. Each sheet is served as a JSON envelope
// {"success": bool, "data": [[cell, ...], ...]} whose first row is a header.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/ports"
)

const (
	// DefaultEndpoint is the published script serving both sheets.
	DefaultEndpoint = "https://script.google.com/macros/s/AKfycbxp16KESUsNMtAmHbei7V4ckoTWMFtB1eJng_hsJF5SQ3Ao-MQeooiHNXCcVSYO-9KFTA/exec"
	// CredentialsSheet names the sheet holding user credentials.
	CredentialsSheet = "Login"
	// SystemsSheet names the sheet holding the systems catalog.
	SystemsSheet = "All Systems"

	DefaultTimeout     = 30 * time.Second
	DefaultSuccessExpr = "success"
	DefaultRowsExpr    = "data"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 16 << 20
)

// OAuthConfig enables client-credentials bearer auth against the endpoint.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Config configures a Client. Zero values select the defaults above.
type Config struct {
	Endpoint    string
	Timeout     time.Duration
	SuccessExpr string
	RowsExpr    string
	// BearerToken is sent as a static Authorization header when OAuth is nil.
	BearerToken string
	OAuth       *OAuthConfig
	// HTTPClient overrides the transport entirely; auth and jar settings are then ignored.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements ports.CatalogSource over HTTP.
// Concurrent reads of the same sheet share one request.
type Client struct {
	endpoint    *url.URL
	http        *http.Client
	successExpr string
	rowsExpr    string
	flight      singleflight.Group
	logger      *slog.Logger
}

var _ ports.CatalogSource = (*Client)(nil)

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint scheme: %q", u.Scheme)
	}

	successExpr := firstNonEmpty(cfg.SuccessExpr, DefaultSuccessExpr)
	rowsExpr := firstNonEmpty(cfg.RowsExpr, DefaultRowsExpr)
	for _, expr := range []string{successExpr, rowsExpr} {
		if _, compileErr := jmespath.Compile(expr); compileErr != nil {
			return nil, fmt.Errorf("invalid envelope expression %q: %w", expr, compileErr)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient, err = newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:    u,
		http:        httpClient,
		successExpr: successExpr,
		rowsExpr:    rowsExpr,
		logger:      logger.With("component", "sheets"),
	}, nil
}

// newHTTPClient builds the default client: a timeout, a cookie jar for the
// script host's redirect hop, and optional bearer auth.
func newHTTPClient(cfg Config) (*http.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	var ts oauth2.TokenSource
	switch {
	case cfg.OAuth != nil && cfg.OAuth.TokenURL != "":
		cc := &clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		tokenClient := &http.Client{Timeout: timeout}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient)
		ts = cc.TokenSource(ctx)
	case cfg.BearerToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
	}

	var transport http.RoundTripper = http.DefaultTransport
	if ts != nil {
		transport = &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	}
	return &http.Client{Timeout: timeout, Jar: jar, Transport: transport}, nil
}

// FetchCredentials implements ports.CatalogSource.
func (c *Client) FetchCredentials(ctx context.Context) ([]domainauth.UserRecord, error) {
	rows, err := c.fetchRows(ctx, CredentialsSheet)
	if err != nil {
		return []domainauth.UserRecord{}, err
	}
	return DecodeCredentials(rows), nil
}

// FetchSystems implements ports.CatalogSource.
func (c *Client) FetchSystems(ctx context.Context) ([]model.SystemRecord, error) {
	rows, err := c.fetchRows(ctx, SystemsSheet)
	if err != nil {
		return []model.SystemRecord{}, err
	}
	return DecodeSystems(rows), nil
}

// fetchRows returns the data rows of a sheet, header removed.
// The shared request outlives a canceled caller so that other waiters still
// get an answer; the client timeout bounds it.
func (c *Client) fetchRows(ctx context.Context, sheet string) ([]Row, error) {
	ch := c.flight.DoChan(sheet, func() (any, error) {
		return c.doFetch(context.WithoutCancel(ctx), sheet)
	})
	select {
	case <-ctx.Done():
		return nil, &FetchError{Sheet: sheet, Op: "request", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rows, _ := res.Val.([]Row)
		if res.Shared {
			rows = append([]Row(nil), rows...)
		}
		return rows, nil
	}
}

func (c *Client) doFetch(ctx context.Context, sheet string) ([]Row, error) {
	start := time.Now()
	u := *c.endpoint
	q := u.Query()
	q.Set("sheet", sheet)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Sheet: sheet, Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "sheet request failed", "sheet", sheet, "error", err)
		return nil, &FetchError{Sheet: sheet, Op: "request", Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "sheet returned non-success status", "sheet", sheet, "status", resp.StatusCode)
		return nil, &FetchError{Sheet: sheet, Op: "status", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Sheet: sheet, Op: "request", Err: err}
	}

	rows, err := c.decodeEnvelope(body)
	if err != nil {
		c.logger.WarnContext(ctx, "sheet envelope rejected", "sheet", sheet, "error", err)
		return nil, &FetchError{Sheet: sheet, Op: opOf(err), Err: err}
	}

	c.logger.DebugContext(ctx, "sheet fetched",
		"sheet", sheet, "rows", len(rows), "duration_ms", time.Since(start).Milliseconds())
	return rows, nil
}

var (
	errNotSuccess = errors.New("envelope success flag is not true")
	errNoRows     = errors.New("envelope has no data array")
	errBadRow     = errors.New("envelope data row is not an array")
)

// errDecode marks a body that is not JSON.
type errDecode struct{ err error }

func (e errDecode) Error() string { return "decode body: " + e.err.Error() }
func (e errDecode) Unwrap() error { return e.err }

func opOf(err error) string {
	var d errDecode
	if errors.As(err, &d) {
		return "decode"
	}
	return "envelope"
}

// decodeEnvelope checks the success flag and returns the data rows after the header.
func (c *Client) decodeEnvelope(body []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errDecode{err: err}
	}

	ok, err := jmespath.Search(c.successExpr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", c.successExpr, err)
	}
	if b, isBool := ok.(bool); !isBool || !b {
		return nil, errNotSuccess
	}

	data, err := jmespath.Search(c.rowsExpr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", c.rowsExpr, err)
	}
	table, isArray := data.([]any)
	if !isArray {
		return nil, errNoRows
	}
	if len(table) <= 1 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(table)-1)
	for _, raw := range table[1:] {
		cells, isRow := raw.([]any)
		if !isRow {
			if raw == nil {
				rows = append(rows, Row{})
				continue
			}
			return nil, errBadRow
		}
		rows = append(rows, Row(cells))
	}
	return rows, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
