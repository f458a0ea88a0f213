// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package user holds the user record served by the user API, its profile
// encoding and a builder for new accounts.
package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingField reports a required field absent from the input.
	ErrMissingField = errors.New("missing field")
	// ErrDuplicateField reports a field given more than once.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrInvalidLength reports a positional encoding with too few elements.
	ErrInvalidLength = errors.New("invalid length")
)

var userFields = [...]string{"name", "age", "dob", "skills"}

// User is the record exposed by the user API.
type User struct {
	Name   string
	Age    uint8
	DOB    time.Time
	Skills []string
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	out.Skills = append([]string(nil), u.Skills...)
	return out
}

type userJSON struct {
	Name   string    `json:"name"`
	Age    uint8     `json:"age"`
	DOB    time.Time `json:"dob"`
	Skills []string  `json:"skills"`
}

// MarshalJSON writes the four fields in a fixed order. Skills is always an array.
func (u User) MarshalJSON() ([]byte, error) {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return json.Marshal(userJSON{Name: u.Name, Age: u.Age, DOB: u.DOB, Skills: skills})
}

// UnmarshalJSON accepts either an object or a four element array in field
// order. Objects must carry every field exactly once; unknown keys are ignored.
func (u *User) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
		return u.decodeObject(dec)
	case json.Delim('['):
		return u.decodeArray(dec)
	default:
		return fmt.Errorf("user: expected object or array, got %v", tok)
	}
}

func (u *User) target(field string) any {
	switch field {
	case "name":
		return &u.Name
	case "age":
		return &u.Age
	case "dob":
		return &u.DOB
	case "skills":
		return &u.Skills
	}
	return nil
}

func (u *User) decodeObject(dec *json.Decoder) error {
	var out User
	seen := make(map[string]bool, len(userFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("user: expected object key, got %v", tok)
		}
		dst := out.target(key)
		if dst == nil {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
			continue
		}
		if seen[key] {
			return fmt.Errorf("user: %w `%s`", ErrDuplicateField, key)
		}
		seen[key] = true
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("user: field %s: %w", key, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	for _, f := range userFields {
		if !seen[f] {
			return fmt.Errorf("user: %w `%s`", ErrMissingField, f)
		}
	}
	*u = out
	return nil
}

func (u *User) decodeArray(dec *json.Decoder) error {
	var out User
	for i, f := range userFields {
		if !dec.More() {
			return fmt.Errorf("user: %w %d, expected struct User with %d elements", ErrInvalidLength, i, len(userFields))
		}
		if err := dec.Decode(out.target(f)); err != nil {
			return fmt.Errorf("user: element %d: %w", i, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("user: %w, expected %d elements", ErrInvalidLength, len(userFields))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*u = out
	return nil
}

// Update is a partial change to a User. Absent or null fields are kept.
type Update struct {
	Age    *uint8    `json:"age,omitempty"`
	Skills *[]string `json:"skills,omitempty"`
}

// Apply returns u with the present fields of up applied.
func (up Update) Apply(u User) User {
	out := u.Clone()
	if up.Age != nil {
		out.Age = *up.Age
	}
	if up.Skills != nil {
		out.Skills = append([]string(nil), (*up.Skills)...)
	}
	return out
}
