// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package identity performs an interactive OAuth2 authorization code login with PKCE, using a
// loopback redirect to receive the authorization code.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/wneessen/gotta-go/internal/logger"
)

const (
	callbackPath      = "/callback"
	shutdownTimeout   = time.Second * 5
	readHeaderTimeout = time.Second * 10

	callbackSuccess = "Login successful. You can close this window and return to gotta-go.\n"
	callbackFailure = "Login failed. You can close this window and return to gotta-go.\n"
)

var (
	// ErrAuthFailure is the parent error of every failed login.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrAuthCancelled is returned when the user declined the login or never completed it.
	ErrAuthCancelled = errors.New("authentication was cancelled")

	// ErrStateMismatch is returned when the callback carries a state value we did not issue.
	ErrStateMismatch = errors.New("authorization state mismatch")
)

// Opener presents the authorization URL to the user, e.g. by printing it or opening a browser.
type Opener func(authURL string) error

// Config holds the OAuth2 client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	ListenAddr   string
	Timeout      time.Duration
}

// Provider runs the login flow against a single OAuth2 identity provider.
type Provider struct {
	config     Config
	open       Opener
	httpClient *http.Client
	logger     *logger.Logger
}

type callbackResult struct {
	code string
	err  error
}

// New returns a Provider. The httpClient is used for the token exchange and may be nil.
func New(conf Config, open Opener, httpClient *http.Client, log *logger.Logger) (*Provider, error) {
	if conf.ClientID == "" {
		return nil, errors.New("OAuth2 client ID is required")
	}
	if conf.AuthURL == "" || conf.TokenURL == "" {
		return nil, errors.New("OAuth2 auth and token URLs are required")
	}
	if conf.ListenAddr == "" {
		return nil, errors.New("listen address is required")
	}
	if open == nil {
		return nil, errors.New("opener is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Provider{
		config:     conf,
		open:       open,
		httpClient: httpClient,
		logger:     log,
	}, nil
}

// Authenticate runs the authorization code flow and returns the access token issued by the
// identity provider. All errors wrap ErrAuthFailure.
func (p *Provider) Authenticate(ctx context.Context) (string, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", p.config.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("%w: failed to listen for the callback: %w", ErrAuthFailure, err)
	}

	oauthConf := &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: p.config.AuthURL, TokenURL: p.config.TokenURL},
		RedirectURL:  "http://" + listener.Addr().String() + callbackPath,
		Scopes:       p.config.Scopes,
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, p.callbackHandler(state, results))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("OAuth2 callback server failed", logger.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			p.logger.Error("failed to shut down OAuth2 callback server", logger.Err(err))
		}
	}()

	authURL := oauthConf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	if err = p.open(authURL); err != nil {
		return "", fmt.Errorf("%w: failed to present authorization URL: %w", ErrAuthFailure, err)
	}
	p.logger.Debug("waiting for OAuth2 callback", slog.String("redirect_url", oauthConf.RedirectURL))

	var code string
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w: %w", ErrAuthFailure, ErrAuthCancelled, ctx.Err())
	case res := <-results:
		if res.err != nil {
			return "", fmt.Errorf("%w: %w", ErrAuthFailure, res.err)
		}
		code = res.code
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	token, err := oauthConf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("%w: failed to exchange authorization code: %w", ErrAuthFailure, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: token response carried no access token", ErrAuthFailure)
	}
	return token.AccessToken, nil
}

// callbackHandler validates the redirect of the identity provider and hands the result to
// results. Only the first callback is considered.
func (p *Provider) callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var res callbackResult
		// The state is checked first, so that a callback without the state of this flow
		// cannot report a cancellation.
		switch {
		case query.Get("state") != state:
			res.err = ErrStateMismatch
		case query.Get("error") == "access_denied":
			res.err = ErrAuthCancelled
		case query.Get("error") != "":
			res.err = fmt.Errorf("identity provider returned error %q: %s", query.Get("error"),
				query.Get("error_description"))
		case query.Get("code") == "":
			res.err = errors.New("callback carried no authorization code")
		default:
			res.code = query.Get("code")
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(callbackFailure))
		} else {
			_, _ = w.Write([]byte(callbackSuccess))
		}

		select {
		case results <- res:
		default:
			p.logger.Debug("ignoring repeated OAuth2 callback")
		}
	}
}
