// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ManuGH/ecosystem/internal/seal"
)

// Profile is the public profile document. Sensitive is only ever written
// sealed; see Codec.
type Profile struct {
	Name        string
	Age         uint8
	DateOfBirth time.Time
	Skills      []string
	State       WorkState
	Data        []byte
	Sensitive   string
	URL         []*url.URL
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = append([]string(nil), p.Skills...)
	out.Data = append([]byte(nil), p.Data...)
	out.URL = make([]*url.URL, len(p.URL))
	for i, u := range p.URL {
		c := *u
		out.URL[i] = &c
	}
	return out
}

// Base64URL is a byte slice encoded as URL-safe base64 without padding.
type Base64URL []byte

func (b Base64URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(b))
}

func (b *Base64URL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	*b = out
	return nil
}

type profileJSON struct {
	Name        string    `json:"name"`
	Age         uint8     `json:"privateAge"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Skills      []string  `json:"skills,omitempty"`
	State       WorkState `json:"state"`
	Data        Base64URL `json:"data"`
	Sensitive   string    `json:"sensitive"`
	URL         []string  `json:"url"`
}

// Codec encodes profiles, sealing the sensitive field with its Sealer.
type Codec struct {
	sealer *seal.Sealer
}

// NewCodec creates a Codec.
func NewCodec(sealer *seal.Sealer) *Codec {
	return &Codec{sealer: sealer}
}

// Marshal encodes p as camelCase JSON.
func (c *Codec) Marshal(p Profile) ([]byte, error) {
	w, err := c.wire(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (c *Codec) wire(p Profile) (profileJSON, error) {
	sealed, err := c.sealer.SealString(p.Sensitive)
	if err != nil {
		return profileJSON{}, fmt.Errorf("seal sensitive: %w", err)
	}
	urls := make([]string, len(p.URL))
	for i, u := range p.URL {
		urls[i] = u.String()
	}
	return profileJSON{
		Name:        p.Name,
		Age:         p.Age,
		DateOfBirth: p.DateOfBirth,
		Skills:      p.Skills,
		State:       p.State,
		Data:        p.Data,
		Sensitive:   sealed,
		URL:         urls,
	}, nil
}

// profileFields lists the keys a profile document must carry. skills is
// optional and defaults to empty.
var profileFields = []string{"name", "privateAge", "dateOfBirth", "state", "data", "sensitive", "url"}

// Unmarshal decodes a profile, opening the sealed field.
func (c *Codec) Unmarshal(data []byte) (Profile, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return Profile{}, err
	}
	for _, f := range profileFields {
		if _, ok := keys[f]; !ok {
			return Profile{}, fmt.Errorf("profile: %w `%s`", ErrMissingField, f)
		}
	}

	var in profileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Profile{}, err
	}
	plain, err := c.sealer.OpenString(in.Sensitive)
	if err != nil {
		return Profile{}, fmt.Errorf("sensitive: %w", err)
	}
	urls, err := parseURLs(in.URL...)
	if err != nil {
		return Profile{}, err
	}
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	return Profile{
		Name:        in.Name,
		Age:         in.Age,
		DateOfBirth: in.DateOfBirth,
		Skills:      skills,
		State:       in.State,
		Data:        []byte(in.Data),
		Sensitive:   plain,
		URL:         urls,
	}, nil
}

func parseURLs(raw ...string) ([]*url.URL, error) {
	out := make([]*url.URL, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("url %q: %w", r, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func mustParseURLs(raw ...string) []*url.URL {
	out, err := parseURLs(raw...)
	if err != nil {
		panic(err)
	}
	return out
}
