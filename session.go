/*************************************************************************
 * Copyright 2026 EdgeFirst AI. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	// defaultHost is used when no server override has been set.
	defaultHost = "edgefirst.studio"
	// renewalWindow is how far ahead of expiry a call to Rpc will trigger a
	// token refresh rather than letting the server reject the request.
	renewalWindow = 3600 * time.Second
)

// Session is the authenticated handle every higher-level component in this
// SDK borrows: it owns a transport and the current bearer token, and
// pre-emptively renews the token before it expires.
type Session struct {
	transport *transport

	mu    sync.RWMutex
	url   string
	token string

	tokenPath string
}

// NewSession returns a Session pointed at the default EdgeFirst Studio
// host, unauthenticated.
func NewSession() *Session {
	return &Session{
		transport: newTransport(),
		url:       "https://" + defaultHost,
	}
}

// SetServer points the session at "https://<server>.edgefirst.studio" and
// discards any token currently held: a token is only valid for the
// database it was issued against.
func (s *Session) SetServer(server string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = fmt.Sprintf("https://%s.%s", server, defaultHost)
	s.token = ""
}

// URL returns the session's current API base URL.
func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Token returns the currently held bearer token, which may be empty.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken validates and installs token, pointing the session's URL at the
// database encoded in its claims.
func (s *Session) SetToken(token string) error {
	if token == "" {
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
		return nil
	}
	claims, err := decodeTokenClaims(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.url = fmt.Sprintf("https://%s.%s", claims.Database, defaultHost)
	return nil
}

// SetTokenPath sets the path the token is persisted to and loads any
// existing token found there. A missing file is not an error.
func (s *Session) SetTokenPath(path string) error {
	s.mu.Lock()
	s.tokenPath = path
	s.mu.Unlock()

	existing, err := loadToken(path)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	if existing == "" {
		return nil
	}
	return s.SetToken(existing)
}

// SaveToken persists the current token to the session's configured token
// path. It is a no-op if no path has been configured.
func (s *Session) SaveToken() error {
	s.mu.RLock()
	path, token := s.tokenPath, s.token
	s.mu.RUnlock()
	if path == "" {
		return nil
	}
	return saveToken(path, token)
}

// authHeader returns the "Bearer <token>" header value, or "" if no token
// is held.
func (s *Session) authHeader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	return "Bearer " + s.token
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

// Login authenticates with username/password via the unauthenticated
// "auth.login" RPC and installs the returned token.
func (s *Session) Login(ctx context.Context, username, password string) error {
	result, err := s.RpcNoAuth(ctx, METHOD_AUTH_LOGIN, loginParams{Username: username, Password: password})
	if err != nil {
		return err
	}
	var lr loginResult
	if err := json.Unmarshal(result, &lr); err != nil {
		return fmt.Errorf("decode login result: %w", err)
	}
	return s.SetToken(lr.Token)
}

// Logout clears the held token and, if a token path is configured, removes
// the persisted token file.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	path := s.tokenPath
	s.mu.Unlock()
	if path == "" {
		return nil
	}
	return removeToken(path)
}

type refreshParams struct {
	Username string `json:"username"`
}

// renewToken requests a fresh token via "auth.refresh" and installs it.
// This goes through RpcNoAuth, never Rpc, to avoid recursing back into the
// pre-emptive renewal check.
func (s *Session) renewToken(ctx context.Context) error {
	username, err := tokenUsername(s.Token())
	if err != nil {
		return err
	}
	result, err := s.RpcNoAuth(ctx, METHOD_AUTH_REFRESH, refreshParams{Username: username})
	if err != nil {
		return err
	}
	var lr loginResult
	if err := json.Unmarshal(result, &lr); err != nil {
		return fmt.Errorf("decode refresh result: %w", err)
	}
	// A refreshed token is always issued for the database the session is
	// already pointed at, so the URL is left untouched here (unlike
	// SetToken, which is also used to install a token before the caller
	// knows which server it resolves to).
	if _, err := decodeTokenClaims(lr.Token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = lr.Token
	s.mu.Unlock()
	return s.SaveToken()
}

// VerifyToken calls the authenticated "auth.verify_token" RPC, which will
// itself trigger a renewal if the held token is near expiry.
func (s *Session) VerifyToken(ctx context.Context) error {
	_, err := s.Rpc(ctx, METHOD_AUTH_VERIFY_TOKEN, nil)
	return err
}

// TokenExpiration returns the expiry time encoded in the currently held
// token.
func (s *Session) TokenExpiration() (time.Time, error) {
	return tokenExpiration(s.Token())
}

// Username returns the username encoded in the currently held token.
func (s *Session) Username() (string, error) {
	return tokenUsername(s.Token())
}

type versionResult struct {
	Version string `json:"version"`
}

// Version calls the unauthenticated "version" RPC.
func (s *Session) Version(ctx context.Context) (string, error) {
	result, err := s.RpcNoAuth(ctx, METHOD_VERSION, nil)
	if err != nil {
		return "", err
	}
	var vr versionResult
	if err := json.Unmarshal(result, &vr); err != nil || vr.Version == "" {
		return "", ErrInvalidResponse
	}
	return vr.Version, nil
}

// Rpc is the authenticated RPC entry point: every higher-level method in
// this SDK goes through it. Before issuing the call, it checks whether the
// held token will expire within renewalWindow and, if so, renews it first.
func (s *Session) Rpc(ctx context.Context, method string, params any) (json.RawMessage, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrEmptyToken
	}
	exp, err := tokenExpiration(token)
	if err != nil {
		return nil, err
	}
	if time.Now().Add(renewalWindow).After(exp) {
		if err := s.renewToken(ctx); err != nil {
			return nil, err
		}
	}
	return s.RpcNoAuth(ctx, method, params)
}

// RpcNoAuth issues an RPC call with whatever Authorization header (if any)
// the session currently holds, without performing the pre-emptive renewal
// check. auth.login, auth.refresh and version use this directly.
func (s *Session) RpcNoAuth(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return s.transport.rpc(ctx, s.URL(), method, params, s.authHeader())
}

// fetch performs an authenticated raw GET against an absolute URL or a
// path relative to the session's base URL, returning the response body
// stream and its reported length.
func (s *Session) fetch(ctx context.Context, pathOrURL string) (io.ReadCloser, int64, error) {
	return s.transport.fetch(ctx, resolveURL(s.URL(), pathOrURL), s.authHeader())
}

// putPart PUTs body to a presigned object-store URL and returns its ETag,
// quotes stripped. Used by the multipart upload path; not authenticated,
// since object-store presigned URLs carry their own credentials.
func (s *Session) putPart(ctx context.Context, rawURL string, body []byte) (string, error) {
	return s.transport.putPart(ctx, rawURL, body)
}

// resolveURL joins a path to the session's base URL unless it is already
// an absolute URL.
func resolveURL(base, pth string) string {
	if strings.HasPrefix(pth, "http://") || strings.HasPrefix(pth, "https://") {
		return pth
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(pth, "/")
}
