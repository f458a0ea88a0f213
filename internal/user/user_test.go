// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dob = time.Date(1990, 5, 17, 8, 30, 0, 0, time.UTC)

func TestUser_DecodeObject(t *testing.T) {
	in := `{"skills":["go","sql"],"name":"ada","extra":{"x":1},"dob":"1990-05-17T08:30:00Z","age":34}`

	var got User
	require.NoError(t, json.Unmarshal([]byte(in), &got))

	want := User{Name: "ada", Age: 34, DOB: dob, Skills: []string{"go", "sql"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded user mismatch (-want +got):\n%s", diff)
	}
}

func TestUser_DecodeArray(t *testing.T) {
	var got User
	require.NoError(t, json.Unmarshal([]byte(`["ada",34,"1990-05-17T08:30:00Z",["go"]]`), &got))
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, []string{"go"}, got.Skills)
	assert.True(t, got.DOB.Equal(dob))
}

func TestUser_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"missing skills", `{"name":"ada","age":1,"dob":"1990-05-17T08:30:00Z"}`, ErrMissingField},
		{"missing everything", `{}`, ErrMissingField},
		{"duplicate name", `{"name":"a","name":"b","age":1,"dob":"1990-05-17T08:30:00Z","skills":[]}`, ErrDuplicateField},
		{"short array", `["ada",34]`, ErrInvalidLength},
		{"long array", `["ada",34,"1990-05-17T08:30:00Z",[],"x"]`, ErrInvalidLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			err := json.Unmarshal([]byte(tt.in), &u)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUser_DecodeRejectsOutOfRangeAge(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"name":"a","age":300,"dob":"1990-05-17T08:30:00Z","skills":[]}`), &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")
}

func TestUser_EncodeNilSkillsAsArray(t *testing.T) {
	b, err := json.Marshal(User{Name: "ada", Age: 1, DOB: dob})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ada","age":1,"dob":"1990-05-17T08:30:00Z","skills":[]}`, string(b))
}

func TestUpdate_Apply(t *testing.T) {
	base := User{Name: "ada", Age: 30, DOB: dob, Skills: []string{"go"}}

	var up Update
	require.NoError(t, json.Unmarshal([]byte(`{"age":31}`), &up))
	got := up.Apply(base)
	assert.Equal(t, uint8(31), got.Age)
	assert.Equal(t, []string{"go"}, got.Skills)

	require.NoError(t, json.Unmarshal([]byte(`{"skills":["rust"],"age":null}`), &up))
	got = up.Apply(base)
	assert.Equal(t, uint8(30), got.Age)
	assert.Equal(t, []string{"rust"}, got.Skills)

	got.Skills[0] = "changed"
	assert.Equal(t, []string{"go"}, base.Skills, "apply must not alias the input")
}
