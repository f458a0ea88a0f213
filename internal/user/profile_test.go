// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ecosystem/internal/seal"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	sealer, err := seal.New([]byte(strings.Repeat("k", seal.KeySize)))
	require.NoError(t, err)
	return NewCodec(sealer)
}

func testProfile() Profile {
	return Profile{
		Name:        "Alice",
		Age:         30,
		DateOfBirth: dob,
		Skills:      []string{"Rust", "Python"},
		State:       WorkingOn("ecosystem"),
		Data:        []byte{1, 2, 3, 4, 5},
		Sensitive:   "secret",
		URL:         mustParseURLs("https://example.com/a?b=c"),
	}
}

func TestCodec_WireFormat(t *testing.T) {
	codec := newTestCodec(t)

	b, err := codec.Marshal(testProfile())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "Alice", raw["name"])
	assert.EqualValues(t, 30, raw["privateAge"])
	assert.Equal(t, "1990-05-17T08:30:00Z", raw["dateOfBirth"])
	assert.Equal(t, "AQIDBAU", raw["data"])
	assert.Equal(t, []any{"https://example.com/a?b=c"}, raw["url"])
	assert.Equal(t, map[string]any{"type": "working", "details": "ecosystem"}, raw["state"])

	sealed, ok := raw["sensitive"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "secret", sealed)
	assert.NotContains(t, string(b), "secret")
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	in := testProfile()

	b, err := codec.Marshal(in)
	require.NoError(t, err)
	out, err := codec.Unmarshal(b)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out, cmpopts.IgnoreFields(Profile{}, "URL")); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, out.URL, 1)
	assert.Equal(t, in.URL[0].String(), out.URL[0].String())
}

func TestCodec_EmptySkillsOmitted(t *testing.T) {
	codec := newTestCodec(t)
	p := testProfile()
	p.Skills = nil

	b, err := codec.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"skills"`)

	out, err := codec.Unmarshal(b)
	require.NoError(t, err)
	assert.NotNil(t, out.Skills)
	assert.Empty(t, out.Skills)
}

func TestCodec_RejectsForeignSeal(t *testing.T) {
	b, err := newTestCodec(t).Marshal(testProfile())
	require.NoError(t, err)

	other, err := seal.New([]byte(strings.Repeat("z", seal.KeySize)))
	require.NoError(t, err)
	_, err = NewCodec(other).Unmarshal(b)
	assert.ErrorIs(t, err, seal.ErrAuth)
}

func TestCodec_RejectsBadData(t *testing.T) {
	codec := newTestCodec(t)
	b, err := codec.Marshal(testProfile())
	require.NoError(t, err)

	broken := strings.Replace(string(b), `"AQIDBAU"`, `"AQ==="`, 1)
	_, err = codec.Unmarshal([]byte(broken))
	assert.Error(t, err)
}

func TestCodec_RequiresFields(t *testing.T) {
	codec := newTestCodec(t)
	b, err := codec.Marshal(testProfile())
	require.NoError(t, err)

	for _, field := range []string{"name", "privateAge", "dateOfBirth", "state", "data", "sensitive", "url"} {
		t.Run(field, func(t *testing.T) {
			var doc map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(b, &doc))
			delete(doc, field)
			trimmed, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = codec.Unmarshal(trimmed)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.ErrorContains(t, err, field)
		})
	}
}

func TestCodec_OnlySensitiveIsRejected(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.sealer.SealString("secret")
	require.NoError(t, err)

	_, err = codec.Unmarshal([]byte(`{"sensitive":"` + token + `"}`))
	assert.ErrorIs(t, err, ErrMissingField)
}
