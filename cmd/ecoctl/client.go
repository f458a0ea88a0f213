// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/ecosystem/internal/telemetry"
)

// client is a small JSON client for the daemon's HTTP services.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	hc := telemetry.HTTPClient(timeout)
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &client{base: strings.TrimRight(base, "/"), http: hc}
}

// problemBody mirrors the RFC 7807 body returned on errors.
type problemBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func (c *client) do(method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// call sends body and decodes a JSON response into out when the status is
// the expected one.
func (c *client) call(method, path string, body any, want int, out any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	var p problemBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &p) == nil && p.Title != "" {
		if p.Detail != "" {
			return fmt.Errorf("%s: %s (%d)", p.Title, p.Detail, resp.StatusCode)
		}
		return fmt.Errorf("%s (%d)", p.Title, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
