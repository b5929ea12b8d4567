// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package session decides whether the user has to log in before the main view is shown.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/gotta-go/internal/logger"
)

// TokenKey is the storage key of the persisted access token.
const TokenKey = "authToken"

// ErrEmptyToken is returned by Login when the identity flow did not produce a token.
var ErrEmptyToken = errors.New("identity provider returned an empty access token")

// Status is the authentication state of the session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticated
)

func (s Status) String() string {
	if s == StatusAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Store is the persistent key-value storage the token is kept in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Authenticator runs an interactive login and returns the access token.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// Gate checks for a stored token. The token is never validated and never expires; its mere
// presence means the user is logged in.
type Gate struct {
	store  Store
	logger *logger.Logger
}

func NewGate(store Store, log *logger.Logger) (*Gate, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Gate{store: store, logger: log}, nil
}

// Check reports StatusAuthenticated if a non-empty token is stored.
func (g *Gate) Check(ctx context.Context) (Status, error) {
	token, ok, err := g.store.Get(ctx, TokenKey)
	if err != nil {
		return StatusUnauthenticated, fmt.Errorf("failed to read session token: %w", err)
	}
	if !ok || token == "" {
		return StatusUnauthenticated, nil
	}
	return StatusAuthenticated, nil
}

// Login runs the identity flow of auth and stores the returned token verbatim. On failure
// nothing is stored and the session stays unauthenticated.
func (g *Gate) Login(ctx context.Context, auth Authenticator) error {
	if auth == nil {
		return errors.New("authenticator is required")
	}
	token, err := auth.Authenticate(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrEmptyToken
	}
	if err = g.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	g.logger.Debug("session token stored")
	return nil
}

// Logout removes the stored token.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}
