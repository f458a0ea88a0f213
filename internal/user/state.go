// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkStateKind enumerates employment states.
type WorkStateKind int

const (
	Working WorkStateKind = iota
	OnLeave
	Terminated

	// WorkStateKindCount is the number of kinds.
	WorkStateKindCount = 3
)

var workStateNames = [WorkStateKindCount]string{"working", "onLeave", "terminated"}

// String returns the wire name of k.
func (k WorkStateKind) String() string {
	if k < 0 || int(k) >= WorkStateKindCount {
		return fmt.Sprintf("WorkStateKind(%d)", int(k))
	}
	return workStateNames[k]
}

// WorkStateKinds returns every kind in declaration order.
func WorkStateKinds() []WorkStateKind {
	return []WorkStateKind{Working, OnLeave, Terminated}
}

// WorkStateNames returns the wire names in declaration order.
func WorkStateNames() []string {
	out := make([]string, WorkStateKindCount)
	copy(out, workStateNames[:])
	return out
}

// ParseWorkStateKind maps a wire name back to its kind.
func ParseWorkStateKind(s string) (WorkStateKind, error) {
	for i, name := range workStateNames {
		if name == s {
			return WorkStateKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown work state %q", s)
}

// WorkState is a kind plus its details: a project for Working, a return
// date for OnLeave, nothing for Terminated.
type WorkState struct {
	Kind    WorkStateKind
	Project string
	Until   time.Time
}

// WorkingOn returns a Working state.
func WorkingOn(project string) WorkState { return WorkState{Kind: Working, Project: project} }

// OnLeaveUntil returns an OnLeave state.
func OnLeaveUntil(t time.Time) WorkState { return WorkState{Kind: OnLeave, Until: t} }

// TerminatedState returns a Terminated state.
func TerminatedState() WorkState { return WorkState{Kind: Terminated} }

type workStateJSON struct {
	Type    string          `json:"type"`
	Details json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON writes {"type": ..., "details": ...}; Terminated has no details.
func (w WorkState) MarshalJSON() ([]byte, error) {
	out := workStateJSON{Type: w.Kind.String()}
	var err error
	switch w.Kind {
	case Working:
		out.Details, err = json.Marshal(w.Project)
	case OnLeave:
		out.Details, err = json.Marshal(w.Until)
	case Terminated:
	default:
		return nil, fmt.Errorf("unknown work state kind %d", int(w.Kind))
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the adjacently tagged form written by MarshalJSON.
func (w *WorkState) UnmarshalJSON(data []byte) error {
	var in workStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseWorkStateKind(in.Type)
	if err != nil {
		return err
	}
	out := WorkState{Kind: kind}
	switch kind {
	case Working:
		if len(in.Details) == 0 {
			return fmt.Errorf("work state %s: %w `details`", kind, ErrMissingField)
		}
		if err := json.Unmarshal(in.Details, &out.Project); err != nil {
			return fmt.Errorf("work state %s: %w", kind, err)
		}
	case OnLeave:
		if len(in.Details) == 0 {
			return fmt.Errorf("work state %s: %w `details`", kind, ErrMissingField)
		}
		if err := json.Unmarshal(in.Details, &out.Until); err != nil {
			return fmt.Errorf("work state %s: %w", kind, err)
		}
	}
	*w = out
	return nil
}
