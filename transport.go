/*************************************************************************
 * Copyright 2026 EdgeFirst AI. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// maxRetries bounds every retryable operation in the transport and
	// transfer engine: RPC calls, multipart part uploads.
	maxRetries = 10
	// clientUserAgent identifies this SDK to the Studio API.
	clientUserAgent = "EdgeFirst Client"
	// defaultRequestTimeout matches the original client's read timeout.
	defaultRequestTimeout = 60 * time.Second
)

// rpcRequest is the JSON-RPC 2.0 envelope sent to the Studio API.
type rpcRequest struct {
	ID      uint64 `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcResponse is the JSON-RPC 2.0 envelope returned by the Studio API. The
// "id" field is never validated: the server is known to always echo a
// constant id regardless of what was sent.
type rpcResponse struct {
	ID      json.RawMessage `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Error   *rpcErrorBody   `json:"error"`
	Result  json.RawMessage `json:"result"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// transport owns the single *http.Client shared by every request this SDK
// makes and implements the retry policy common to RPC calls and multipart
// part uploads: up to maxRetries attempts, sleeping attempt*1s between
// attempts, with HTTP 401 treated as immediately fatal.
type transport struct {
	httpClient *http.Client
	log        *logrus.Logger
}

func newTransport() *transport {
	return &transport{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		log:        logrus.New(),
	}
}

// rpc posts a JSON-RPC request to baseURL+"/api" and returns the decoded
// result payload. authHeader, when non-empty, is sent as the Authorization
// header verbatim (callers pass "Bearer <token>").
//
// Retry policy: a transport-level error (failed to connect, timeout) or a
// non-2xx/non-401 HTTP status consumes one attempt and sleeps
// time.Duration(attempt)*time.Second before the next attempt, so attempt 0
// never sleeps. A 401 status aborts immediately with ErrUnauthorized. A
// malformed JSON response body aborts immediately without consuming retry
// budget semantics (it is not retried at all). An RPC-level error object
// in an otherwise well-formed response is returned as *RpcError without
// being retried.
func (t *transport) rpc(ctx context.Context, baseURL, method string, params any, authHeader string) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{ID: 0, JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode rpc request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		result, retriable, err := t.doRPC(ctx, baseURL, reqBody, authHeader)
		if err == nil {
			return result, nil
		}
		if !retriable {
			return nil, err
		}
		lastErr = err
		t.log.WithError(err).WithField("attempt", attempt).Debug("rpc attempt failed, retrying")
	}
	if lastErr != nil {
		t.log.WithError(lastErr).Debug("rpc retries exhausted")
	}
	return nil, &MaxRetriesExceededError{Retries: maxRetries}
}

// doRPC performs a single attempt. The bool return reports whether the
// caller should retry on error.
func (t *transport) doRPC(ctx context.Context, baseURL string, reqBody []byte, authHeader string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api", bytes.NewReader(reqBody))
	if err != nil {
		return nil, false, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", clientUserAgent)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("socket error: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, false, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, true, &HttpError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, false, fmt.Errorf("decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return nil, false, &RpcError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if envelope.Result == nil {
		return nil, false, ErrInvalidResponse
	}
	return envelope.Result, false, nil
}

// multipartFile is one "file" part of a postMultipart request. Training
// and validation session uploads (§6 trainer.upload.files,
// validate.upload.files) attach several of these to a single request,
// each under the same "file" field name, alongside one shared "params"
// field.
type multipartFile struct {
	Name    string
	Content io.Reader
}

// postMultipart posts a multipart/form-data body to baseURL+"/api?method="
// +method: a "params" text field holding the JSON-encoded params, plus one
// "file" part per entry in files. Used by §6's upload endpoints that go
// through the RPC envelope instead of the presigned-URL multipart flow
// (trainer.upload.files, validate.upload.files).
func (t *transport) postMultipart(ctx context.Context, baseURL, method string, params any, files []multipartFile, authHeader string) (json.RawMessage, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode multipart params: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		var err error
		defer func() {
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			pw.Close()
		}()
		if err = mw.WriteField("params", string(paramsJSON)); err != nil {
			return
		}
		for _, f := range files {
			var part io.Writer
			part, err = mw.CreateFormFile("file", f.Name)
			if err != nil {
				return
			}
			if _, err = io.Copy(part, f.Content); err != nil {
				return
			}
		}
		err = mw.Close()
	}()

	endpoint := baseURL + "/api?method=" + url.QueryEscape(method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", clientUserAgent)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("socket error: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HttpError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return nil, &RpcError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return envelope.Result, nil
}

// fetch performs an authenticated raw GET, returning the body stream and
// the server-reported Content-Length (or -1 if absent). Callers are
// responsible for closing the returned ReadCloser. Unlike rpc, fetch is
// not retried: artifact/checkpoint downloads are left to the caller's own
// retry policy, since these streams may be arbitrarily large.
func (t *transport) fetch(ctx context.Context, rawURL, authHeader string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", clientUserAgent)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("socket error: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drainAndClose(resp.Body)
		return nil, 0, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		drainAndClose(resp.Body)
		return nil, 0, &HttpError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, resp.ContentLength, nil
}

// putPart PUTs exactly len(body) bytes to a presigned object-store URL and
// returns the response's ETag header with surrounding quotes stripped
// (object stores vary on whether they quote it). Retried with the same
// policy as rpc: up to maxRetries attempts, sleeping attempt*1s between
// attempts.
func (t *transport) putPart(ctx context.Context, rawURL string, body []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		etag, retriable, err := t.doPutPart(ctx, rawURL, body)
		if err == nil {
			return etag, nil
		}
		if !retriable {
			return "", err
		}
		lastErr = err
		t.log.WithError(err).WithField("attempt", attempt).Debug("part upload attempt failed, retrying")
	}
	if lastErr != nil {
		t.log.WithError(lastErr).Debug("part upload retries exhausted")
	}
	return "", &MaxRetriesExceededError{Retries: maxRetries}
}

func (t *transport) doPutPart(ctx context.Context, rawURL string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build part upload request: %w", err)
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("User-Agent", clientUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("socket error: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return "", false, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", true, &HttpError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", false, &InvalidEtagError{Detail: "object store response carried no ETag header"}
	}
	return strings.Trim(etag, `"`), false, nil
}

// maxDataDrain bounds how much of a response body we will read while
// draining it for connection reuse.
const maxDataDrain = 1024 * 1024 * 4

// drainAndClose drains up to maxDataDrain bytes of resp so the underlying
// connection can be reused, then closes it.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(body, maxDataDrain))
	body.Close()
}
