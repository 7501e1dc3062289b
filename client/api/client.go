// Package api is the sync client's HTTP layer: bearer-token requests against
// the ModernNav backend with silent refresh. The refresh credential lives in
// an HTTP-only cookie the client never reads, only presents back via its
// cookie jar.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/xingkaijun/modernnav/client/localstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/token"
)

// refreshFlight is one in-flight refresh episode. Concurrent callers wait on
// done and share the single outcome.
type refreshFlight struct {
	done  chan struct{}
	token string
}

const refreshCookieName = "refresh_token"

type Client struct {
	baseURL string
	authURL *url.URL
	http    *http.Client
	store   localstore.Store
	log     zerolog.Logger
	nowFunc func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	flight      *refreshFlight
}

type ClientOption func(*Client)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func New(baseURL string, store localstore.Store, log zerolog.Logger, options ...ClientOption) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[api.New] cookie jar")
	}
	authURL, err := url.Parse(baseURL + "/api/auth")
	if err != nil {
		return nil, errors.Wrap(err, "[api.New] parse base URL")
	}

	c := &Client{
		baseURL: baseURL,
		authURL: authURL,
		http:    &http.Client{Jar: jar},
		store:   store,
		log:     log,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	c.loadTokenFromStorage()
	c.loadRefreshCookie()
	return c, nil
}

// loadRefreshCookie rehydrates the jar from storage so silent refresh keeps
// working across process restarts.
func (c *Client) loadRefreshCookie() {
	value, ok := c.store.Get(localstore.KeyRefreshToken)
	if !ok || value == "" {
		return
	}
	c.http.Jar.SetCookies(c.authURL, []*http.Cookie{{
		Name:  refreshCookieName,
		Value: value,
		Path:  "/api/auth",
	}})
}

// persistCookies mirrors refresh cookie changes into storage. A cleared
// cookie (logout, rejected refresh) removes the stored copy.
func (c *Client) persistCookies(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != refreshCookieName {
			continue
		}
		if ck.Value == "" || ck.MaxAge < 0 {
			if err := c.store.Delete(localstore.KeyRefreshToken); err != nil {
				c.log.Warn().Err(err).Msg("clear refresh token")
			}
			continue
		}
		if err := c.store.Set(localstore.KeyRefreshToken, ck.Value); err != nil {
			c.log.Warn().Err(err).Msg("persist refresh token")
		}
	}
}

func (c *Client) loadTokenFromStorage() {
	tok, ok := c.store.Get(localstore.KeyAccessToken)
	if !ok {
		return
	}
	expiryRaw, ok := c.store.Get(localstore.KeyTokenExpiry)
	if !ok {
		return
	}
	expiryMs, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil {
		return
	}
	expiry := time.UnixMilli(expiryMs)
	if c.nowFunc().Before(expiry) {
		c.accessToken = tok
		c.tokenExpiry = expiry
	}
}

// saveTokenLocked persists a fresh access token and clears the logged-out
// tombstone. Caller holds the mutex.
func (c *Client) saveTokenLocked(tok string) {
	c.accessToken = tok
	c.tokenExpiry = c.nowFunc().Add(token.AccessTTL)
	if err := c.store.Set(localstore.KeyAccessToken, tok); err != nil {
		c.log.Warn().Err(err).Msg("persist access token")
	}
	if err := c.store.Set(localstore.KeyTokenExpiry, strconv.FormatInt(c.tokenExpiry.UnixMilli(), 10)); err != nil {
		c.log.Warn().Err(err).Msg("persist token expiry")
	}
	if err := c.store.Delete(localstore.KeyLoggedOut); err != nil {
		c.log.Warn().Err(err).Msg("clear logged-out flag")
	}
}

// clearTokenLocked drops all credential state and sets the logged-out
// tombstone, suppressing automatic refresh until the next explicit login.
// Caller holds the mutex.
func (c *Client) clearTokenLocked() {
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	if err := c.store.Delete(localstore.KeyAccessToken); err != nil {
		c.log.Warn().Err(err).Msg("clear access token")
	}
	if err := c.store.Delete(localstore.KeyTokenExpiry); err != nil {
		c.log.Warn().Err(err).Msg("clear token expiry")
	}
	if err := c.store.Delete(localstore.KeyRefreshToken); err != nil {
		c.log.Warn().Err(err).Msg("clear refresh token")
	}
	if err := c.store.Set(localstore.KeyLoggedOut, "true"); err != nil {
		c.log.Warn().Err(err).Msg("set logged-out flag")
	}
}

func (c *Client) loggedOut() bool {
	v, ok := c.store.Get(localstore.KeyLoggedOut)
	return ok && v == "true"
}

// AccessToken returns a currently valid access token, refreshing silently
// when the cached one has expired. It returns apperrors.ErrNotAuthenticated
// when no credential can be obtained; that is a precondition, not a failure.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && c.nowFunc().Before(c.tokenExpiry) {
		tok := c.accessToken
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	if c.loggedOut() {
		return "", apperrors.ErrNotAuthenticated
	}

	tok, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	return tok, nil
}

// IsAuthenticated reports whether a valid access token is available,
// refreshing if necessary.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	tok, err := c.AccessToken(ctx)
	return err == nil && tok != ""
}

// refresh deduplicates concurrent refresh attempts: exactly one network call
// per expiry episode, with every caller observing its outcome.
func (c *Client) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if fl := c.flight; fl != nil {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.token, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	fl := &refreshFlight{done: make(chan struct{})}
	c.flight = fl
	c.mu.Unlock()

	tok := c.doRefresh(ctx)

	c.mu.Lock()
	fl.token = tok
	c.flight = nil
	c.mu.Unlock()
	close(fl.done)

	return tok, nil
}

// doRefresh performs the actual refresh round-trip. A 401/403 means the
// refresh credential itself is dead: credential state is cleared and the
// tombstone set. Transient failures leave state untouched.
func (c *Client) doRefresh(ctx context.Context) string {
	resp, body, err := c.post(ctx, "/api/auth", map[string]string{"action": "refresh"}, "")
	if err != nil {
		c.log.Warn().Err(err).Msg("token refresh failed")
		return ""
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.mu.Lock()
		c.clearTokenLocked()
		c.mu.Unlock()
		return ""
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("token refresh failed")
		return ""
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		c.log.Warn().Msg("token refresh returned no token")
		return ""
	}

	c.mu.Lock()
	c.saveTokenLocked(result.AccessToken)
	c.mu.Unlock()
	return result.AccessToken
}

// Login presents the access code. An invalid code yields (false, nil); only
// transport failures surface as errors.
func (c *Client) Login(ctx context.Context, code string) (bool, error) {
	resp, body, err := c.post(ctx, "/api/auth", map[string]string{"action": "login", "code": code}, "")
	if err != nil {
		return false, errors.Wrap(err, "[Client.Login] request")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, nil
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		return false, nil
	}

	c.mu.Lock()
	c.saveTokenLocked(result.AccessToken)
	c.mu.Unlock()
	return true, nil
}

// Logout best-effort invalidates the refresh credential server-side, then
// unconditionally clears local state. A network failure never blocks logout.
func (c *Client) Logout(ctx context.Context) {
	if _, _, err := c.post(ctx, "/api/auth", map[string]string{"action": "logout"}, ""); err != nil {
		c.log.Warn().Err(err).Msg("logout request failed")
	}
	c.mu.Lock()
	c.clearTokenLocked()
	c.mu.Unlock()
}

// UpdateAccessCode rotates the access code and adopts the freshly signed
// token pair from the response.
func (c *Client) UpdateAccessCode(ctx context.Context, currentCode, newCode string) error {
	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.Request(ctx, http.MethodPost, "/api/auth", map[string]string{
		"action":      "update",
		"currentCode": currentCode,
		"newCode":     newCode,
	}, &result); err != nil {
		return err
	}
	if result.AccessToken != "" {
		c.mu.Lock()
		c.saveTokenLocked(result.AccessToken)
		c.mu.Unlock()
	}
	return nil
}

// Request performs an authenticated JSON round-trip. A 401 triggers a single
// refresh-and-retry; a non-2xx response surfaces the server's error message
// verbatim.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	tok, err := c.AccessToken(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotAuthenticated) {
		return err
	}

	resp, raw, err := c.send(ctx, method, path, body, tok)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		newTok, err := c.refresh(ctx)
		if err != nil {
			return err
		}
		if newTok == "" {
			return errors.Wrap(apperrors.ErrNotAuthenticated, "[Client.Request] session expired")
		}
		resp, raw, err = c.send(ctx, method, path, body, newTok)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(serverError(raw, resp.StatusCode))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "[Client.Request] decode response")
		}
	}
	return nil
}

// post is the unauthenticated request path used by the auth protocol itself.
func (c *Client) post(ctx context.Context, path string, body any, bearer string) (*http.Response, []byte, error) {
	return c.send(ctx, http.MethodPost, path, body, bearer)
}

func (c *Client) send(ctx context.Context, method, path string, body any, bearer string) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Client.send] marshal body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.send] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.send] do request")
	}
	defer resp.Body.Close()
	c.persistCookies(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.send] read response")
	}
	return resp, raw, nil
}

// serverError extracts the server's error message, falling back to the
// status code.
func serverError(raw []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("HTTP error, status: %d", status)
}
