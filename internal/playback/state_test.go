package playback

import (
	"reflect"
	"testing"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		in        Input
		wantState State
		wantCmds  []Command
	}{
		{
			name:      "becomes active after interaction with loaded player",
			state:     Hidden,
			in:        Input{Active: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Playing,
			wantCmds:  []Command{cmdMute, cmdPlay},
		},
		{
			name:      "becomes active before player is ready",
			state:     Hidden,
			in:        Input{Active: true, WasInteracted: true, Interacted: true},
			wantState: Loading,
		},
		{
			name:      "active without interaction is gated",
			state:     Hidden,
			in:        Input{Active: true, Ready: true},
			wantState: Idle,
		},
		{
			name:      "first interaction starts the active row",
			state:     Idle,
			in:        Input{WasActive: true, Active: true, Interacted: true, Ready: true},
			wantState: Playing,
			wantCmds:  []Command{cmdMute, cmdPlay},
		},
		{
			name:      "loading row plays once ready",
			state:     Loading,
			in:        Input{WasActive: true, Active: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Playing,
			wantCmds:  []Command{cmdMute, cmdPlay},
		},
		{
			name:      "leaving active pauses then rewinds",
			state:     Playing,
			in:        Input{WasActive: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Hidden,
			wantCmds:  []Command{cmdPause, cmdRewind},
		},
		{
			name:      "leaving active from manual pause still rewinds",
			state:     Paused,
			in:        Input{WasActive: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Hidden,
			wantCmds:  []Command{cmdPause, cmdRewind},
		},
		{
			name:      "inactive row stays hidden silently",
			state:     Hidden,
			in:        Input{WasInteracted: true, Interacted: true, Ready: true},
			wantState: Hidden,
		},
		{
			name:      "manual pause survives re-evaluation",
			state:     Paused,
			in:        Input{WasActive: true, Active: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Paused,
		},
		{
			name:      "playing row is left alone while active",
			state:     Playing,
			in:        Input{WasActive: true, Active: true, WasInteracted: true, Interacted: true, Ready: true},
			wantState: Playing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cmds := Reduce(tt.state, tt.in)
			if got != tt.wantState {
				t.Errorf("state: got %s, want %s", got, tt.wantState)
			}
			if len(cmds) != 0 || len(tt.wantCmds) != 0 {
				if !reflect.DeepEqual(cmds, tt.wantCmds) {
					t.Errorf("commands: got %+v, want %+v", cmds, tt.wantCmds)
				}
			}
		})
	}
}

func TestToggle(t *testing.T) {
	if s, cmds := Toggle(Playing); s != Paused || len(cmds) != 1 || cmds[0].Kind != CommandPause {
		t.Errorf("expected Playing -> Paused with pause, got %s %+v", s, cmds)
	}
	if s, cmds := Toggle(Paused); s != Playing || len(cmds) != 1 || cmds[0].Kind != CommandPlay {
		t.Errorf("expected Paused -> Playing with play, got %s %+v", s, cmds)
	}
	if s, cmds := Toggle(Loading); s != Loading || cmds != nil {
		t.Errorf("expected Loading to ignore toggle, got %s %+v", s, cmds)
	}
}

func TestSettle(t *testing.T) {
	kinds := func(cmds []Command) []CommandKind {
		out := make([]CommandKind, len(cmds))
		for i, c := range cmds {
			out[i] = c.Kind
		}
		return out
	}
	tests := []struct {
		state State
		want  []CommandKind
	}{
		{Playing, []CommandKind{CommandMute, CommandPlay}},
		{Paused, []CommandKind{CommandPause}},
		{Hidden, []CommandKind{CommandPause, CommandSeek}},
		{Loading, []CommandKind{}},
		{Idle, []CommandKind{}},
	}
	for _, tt := range tests {
		got := kinds(Settle(tt.state))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Settle(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if Playing.String() != "playing" || Hidden.String() != "hidden" {
		t.Error("unexpected state names")
	}
	if State(42).String() != "unknown(42)" {
		t.Errorf("unexpected unknown state name %q", State(42).String())
	}
}

func TestSession_MarkInteractedOnce(t *testing.T) {
	s := NewSession()
	if !s.MarkInteracted() {
		t.Fatal("expected first call to report true")
	}
	if s.MarkInteracted() {
		t.Fatal("expected second call to report false")
	}
	if !s.Interacted() {
		t.Fatal("expected interacted flag to stay set")
	}
}

func TestSession_SetActive(t *testing.T) {
	s := NewSession()
	if _, ok := s.Active(); ok {
		t.Fatal("expected no active index initially")
	}
	if !s.SetActive(2) || s.SetActive(2) {
		t.Fatal("expected only the first SetActive(2) to report a change")
	}
	if !s.IsActive(2) || s.IsActive(1) {
		t.Fatal("unexpected IsActive result")
	}
	s.ClearActive()
	if s.IsActive(2) {
		t.Fatal("expected active index to be cleared")
	}
}
