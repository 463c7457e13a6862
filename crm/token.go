// Package crm talks to the CRM's REST API: OAuth2 token lifecycle, paginated
// record listing with retry/backoff, and per-entity extractors.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/talentbridge/crmsync/core/errs"
)

// defaultRefreshSkew is how long before expiry a token is considered stale.
const defaultRefreshSkew = 60 * time.Second

// TokenConfig holds the credentials for the refresh-token grant.
type TokenConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TokenSource owns the access-token lifecycle: it exchanges the long-lived
// refresh token for short-lived access tokens and re-acquires them as they
// approach expiry. The sync job is single-threaded, so TokenSource is not
// safe for concurrent use.
//
// Credential values never appear in logs or error messages.
type TokenSource struct {
	cfg        TokenConfig
	httpClient *http.Client
	logger     *slog.Logger

	accessToken string
	expiry      time.Time
}

// NewTokenSource creates a token source. A nil httpClient falls back to a
// client with a 30s timeout.
func NewTokenSource(cfg TokenConfig, httpClient *http.Client) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     slog.Default(),
	}
}

// WithLogger returns a copy of the token source using the given logger.
func (s *TokenSource) WithLogger(l *slog.Logger) *TokenSource {
	tmp := *s
	tmp.logger = l
	return &tmp
}

// tokenResponse is the CRM token endpoint's reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error,omitempty"`
}

// Token returns a valid access token, refreshing it first if it is missing or
// within the skew window of expiry. Failures wrap errs.ErrAuth.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.accessToken != "" && time.Until(s.expiry) > defaultRefreshSkew {
		return s.accessToken, nil
	}
	if err := s.refresh(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// Expiry returns the current token's expiry time. Zero when no token is held.
func (s *TokenSource) Expiry() time.Time {
	return s.expiry
}

// Invalidate discards the current token so the next Token call refreshes. The
// API client calls this after an auth-rejected response.
func (s *TokenSource) Invalidate() {
	s.accessToken = ""
	s.expiry = time.Time{}
}

func (s *TokenSource) refresh(ctx context.Context) error {
	form := url.Values{
		"refresh_token": {s.cfg.RefreshToken},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errs.Wrap(err, errs.ErrAuth, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrAuth, "token request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(err, errs.ErrAuth, "failed to read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token endpoint returned status %d", errs.ErrAuth, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return errs.Wrap(err, errs.ErrAuth, "failed to parse token response")
	}
	// Zoho reports grant rejections with HTTP 200 and an error field.
	if tok.Error != "" {
		return fmt.Errorf("%w: token endpoint rejected the refresh grant (%s)", errs.ErrAuth, tok.Error)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: token endpoint returned no access token", errs.ErrAuth)
	}

	s.accessToken = tok.AccessToken
	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	s.expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	s.logger.Info("access token refreshed", "expires_in", expiresIn)
	return nil
}
