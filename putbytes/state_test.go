package putbytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StatePrepared, "prepared"},
		{StateSending, "sending"},
		{StateCommitted, "committed"},
		{StateInstalled, "installed"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestCanTransition(t *testing.T) {
	all := []State{StateIdle, StatePrepared, StateSending, StateCommitted, StateInstalled, StateFailed}
	allowed := map[[2]State]bool{
		{StateIdle, StatePrepared}:       true,
		{StatePrepared, StateSending}:    true,
		{StateSending, StateCommitted}:   true,
		{StateCommitted, StateInstalled}: true,
		{StateIdle, StateFailed}:         true,
		{StatePrepared, StateFailed}:     true,
		{StateSending, StateFailed}:      true,
		{StateCommitted, StateFailed}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]State{from, to}], canTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateInstalled.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateIdle.IsTerminal())
	assert.False(t, StateSending.IsTerminal())
}
