// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkStateKind_Enumeration(t *testing.T) {
	assert.Equal(t, WorkStateKindCount, len(WorkStateKinds()))
	assert.Equal(t, []string{"working", "onLeave", "terminated"}, WorkStateNames())

	for _, k := range WorkStateKinds() {
		parsed, err := ParseWorkStateKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseWorkStateKind("retired")
	assert.Error(t, err)
	assert.Equal(t, "WorkStateKind(7)", WorkStateKind(7).String())
}

func TestWorkState_JSON(t *testing.T) {
	tests := []struct {
		state WorkState
		want  string
	}{
		{WorkingOn("ecosystem"), `{"type":"working","details":"ecosystem"}`},
		{OnLeaveUntil(dob), `{"type":"onLeave","details":"1990-05-17T08:30:00Z"}`},
		{TerminatedState(), `{"type":"terminated"}`},
	}
	for _, tt := range tests {
		t.Run(tt.state.Kind.String(), func(t *testing.T) {
			b, err := json.Marshal(tt.state)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			var back WorkState
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tt.state.Kind, back.Kind)
			assert.Equal(t, tt.state.Project, back.Project)
			assert.True(t, tt.state.Until.Equal(back.Until))
		})
	}
}

func TestWorkState_DecodeErrors(t *testing.T) {
	var w WorkState
	assert.Error(t, json.Unmarshal([]byte(`{"type":"retired"}`), &w))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"working"}`), &w), ErrMissingField)
	assert.Error(t, json.Unmarshal([]byte(`{"type":"onLeave","details":"soon"}`), &w))
}
