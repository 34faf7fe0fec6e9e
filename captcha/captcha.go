// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is Google's reCAPTCHA verification endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var ErrNoSecret = errors.New("captcha: no secret configured")

// Result is the verifier's decision plus its diagnostic codes.
type Result struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verifier checks client-supplied CAPTCHA tokens against the external
// verification service.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:    secret,
		verifyURL: DefaultVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewVerifierURL targets a non-default endpoint. Used by tests.
func NewVerifierURL(secret, verifyURL string) *Verifier {
	v := NewVerifier(secret)
	v.verifyURL = verifyURL
	return v
}

// Verify submits the token with the shared secret. A non-2xx status or
// transport failure is an error; a clean "no" comes back as
// Result.Success == false.
func (v *Verifier) Verify(ctx context.Context, token string) (Result, error) {
	if v.secret == "" {
		return Result{}, ErrNoSecret
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("captcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("captcha: verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("captcha: verifier returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("captcha: decode response: %w", err)
	}

	return result, nil
}
