// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"fmt"
	"time"
)

// Account is a user built through Builder.
type Account struct {
	Name   string
	Email  string // empty when not given
	DOB    time.Time
	Skills []string
	Age    int
}

// Builder assembles an Account. Setters chain; Build validates.
type Builder struct {
	name   *string
	email  *string
	dob    *time.Time
	skills []string
	now    func() time.Time
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

func (b *Builder) Name(name string) *Builder {
	b.name = &name
	return b
}

func (b *Builder) Email(email string) *Builder {
	b.email = &email
	return b
}

// DOB sets the date of birth from an RFC 3339 string. An unparsable value
// clears it, so Build fails.
func (b *Builder) DOB(s string) *Builder {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		b.dob = nil
		return b
	}
	b.dob = &t
	return b
}

// Skill appends one skill.
func (b *Builder) Skill(skill string) *Builder {
	b.skills = append(b.skills, skill)
	return b
}

// Build returns the Account. Age is the difference in calendar years
// between now and the date of birth.
func (b *Builder) Build() (Account, error) {
	if b.name == nil {
		return Account{}, fmt.Errorf("build account: %w `name`", ErrMissingField)
	}
	if b.dob == nil {
		return Account{}, fmt.Errorf("build account: %w `dob`", ErrMissingField)
	}
	a := Account{
		Name:   *b.name,
		DOB:    *b.dob,
		Skills: append([]string{}, b.skills...),
		Age:    b.now().Year() - b.dob.Year(),
	}
	if b.email != nil {
		a.Email = *b.email
	}
	return a, nil
}
