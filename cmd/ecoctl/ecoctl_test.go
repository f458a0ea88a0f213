// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ecosystem/internal/hashing"
	"github.com/ManuGH/ecosystem/internal/problem"
	"github.com/ManuGH/ecosystem/internal/seal"
	"github.com/ManuGH/ecosystem/internal/user"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fakeShortener(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !strings.HasPrefix(req.URL, "http") {
			problem.Unprocessable(w, r, "shortener/unprocessable", "invalid url")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"http://short.test/abc123"}`))
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "abc123" {
			problem.NotFound(w, r, "shortener/not_found", "no url is stored for this id")
			return
		}
		w.Header().Set("Location", "https://example.com/long")
		w.WriteHeader(http.StatusPermanentRedirect)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestShortenAndResolve(t *testing.T) {
	srv := fakeShortener(t)

	out, err := run(t, "", "shorten", "--server", srv.URL, "https://example.com/long")
	require.NoError(t, err)
	assert.Equal(t, "http://short.test/abc123\n", out)

	out, err = run(t, "", "resolve", "-s", srv.URL, "http://short.test/abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/long\n", out)
}

func TestShortenAndResolveErrors(t *testing.T) {
	srv := fakeShortener(t)

	_, err := run(t, "", "shorten", "--server", srv.URL, "ftp://nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")

	_, err = run(t, "", "resolve", "--server", srv.URL, "zzzzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = run(t, "", "resolve", "--server", srv.URL, "not/an id!")
	assert.Error(t, err)
}

func TestUserGetAndPatch(t *testing.T) {
	sealer, err := seal.New(bytes.Repeat([]byte{7}, seal.KeySize))
	require.NoError(t, err)
	u, p := user.Seed(time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC))
	store := user.NewStore(u, p)
	r := chi.NewRouter()
	user.NewHandler(store, user.NewCodec(sealer)).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	out, err := run(t, "", "user", "get", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "zhangsan"`)

	out, err = run(t, "", "user", "patch", "--server", srv.URL, "--age", "42", "--skill", "go", "--skill", "sql")
	require.NoError(t, err)
	assert.Contains(t, out, `"age": 42`)
	assert.Equal(t, []string{"go", "sql"}, store.User().Skills)

	_, err = run(t, "", "user", "patch", "--server", srv.URL)
	assert.ErrorContains(t, err, "nothing to update")

	_, err = run(t, "", "user", "patch", "--server", srv.URL, "--age", "300")
	assert.Error(t, err)
}

func TestSealUnseal(t *testing.T) {
	key := strings.Repeat("0f", 32)

	token, err := run(t, "", "seal", "--key", key, "top secret")
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	assert.NotContains(t, token, "secret")

	out, err := run(t, "", "unseal", "-k", key, token)
	require.NoError(t, err)
	assert.Equal(t, "top secret\n", out)

	_, err = run(t, "", "unseal", "--key", strings.Repeat("f0", 32), token)
	assert.ErrorIs(t, err, seal.ErrAuth)

	t.Setenv("ECO_SEAL_KEY", "")
	_, err = run(t, "", "seal", "x")
	assert.ErrorContains(t, err, "--key")
}

func TestHash(t *testing.T) {
	out, err := run(t, "alpha\nbeta\ngamma\n", "hash", "--workers", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	sort.Strings(lines)
	want := []string{
		hashing.Digest("alpha") + "  alpha",
		hashing.Digest("beta") + "  beta",
		hashing.Digest("gamma") + "  gamma",
	}
	sort.Strings(want)
	assert.Equal(t, want, lines)
}
