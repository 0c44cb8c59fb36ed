package config

import (
	"strings"
	"time"
)

// CatalogConfig points the dashboard at the published credential and
// systems sheets.
type CatalogConfig struct {
	// Endpoint is the web script URL; empty selects the built-in default.
	Endpoint string        `env:"ENDPOINT"`
	Timeout  time.Duration `env:"TIMEOUT"      envDefault:"30s"`
	// RowsExpr and SuccessExpr are JMESPath expressions over the response envelope.
	RowsExpr    string `env:"ROWS_EXPR"    envDefault:"data"`
	SuccessExpr string `env:"SUCCESS_EXPR" envDefault:"success"`
	// BearerToken is sent as a static Authorization header.
	BearerToken string `env:"BEARER_TOKEN"`

	OAuth CatalogOAuthConfig `envPrefix:"OAUTH_"`
}

// CatalogOAuthConfig enables client-credentials auth against the endpoint.
type CatalogOAuthConfig struct {
	TokenURL     string   `env:"TOKEN_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"        envSeparator:","`
}

// Enabled reports whether enough is configured to request tokens.
func (c CatalogOAuthConfig) Enabled() bool {
	return c.TokenURL != "" && c.ClientID != ""
}

// Sanitize trims values and restores defaults for blank settings.
func (c *CatalogConfig) Sanitize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.BearerToken = strings.TrimSpace(c.BearerToken)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RowsExpr = strings.TrimSpace(c.RowsExpr); c.RowsExpr == "" {
		c.RowsExpr = "data"
	}
	if c.SuccessExpr = strings.TrimSpace(c.SuccessExpr); c.SuccessExpr == "" {
		c.SuccessExpr = "success"
	}
	c.OAuth.TokenURL = strings.TrimSpace(c.OAuth.TokenURL)
	c.OAuth.ClientID = strings.TrimSpace(c.OAuth.ClientID)
	scopes := c.OAuth.Scopes[:0]
	for _, s := range c.OAuth.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	c.OAuth.Scopes = scopes
}
