package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByContext(t *testing.T) {
	for _, ctx := range []string{"global", "playback", "output", "queue"} {
		t.Run(ctx, func(t *testing.T) {
			got := ByContext(ctx)
			assert.NotEmpty(t, got)
			for _, b := range got {
				assert.Equal(t, ctx, b.Context)
			}
		})
	}
	assert.Empty(t, ByContext("unknown"))
}

func TestAll_NoDuplicateKeys(t *testing.T) {
	seen := map[string]Action{}
	for _, b := range All {
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %s and %s", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
		{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
		{ActionMoveUp, []string{"k", "up", "k"}, "Move up", "queue"},
	})

	tests := []struct {
		key  string
		want Action
	}{
		{"q", ActionQuit},
		{"ctrl+c", ActionQuit},
		{" ", ActionPlayPause},
		{"up", ActionMoveUp},
		{"x", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Resolve(tt.key), "key %q", tt.key)
	}

	assert.Equal(t, []string{"q", "ctrl+c"}, r.KeysFor(ActionQuit))
	assert.Equal(t, []string{"k", "up"}, r.KeysFor(ActionMoveUp), "keys are deduplicated")
	assert.Nil(t, r.KeysFor(ActionStop))
}

func TestResolver_LaterBindingWins(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionStop, []string{"s"}, "", ""},
		{ActionSeekBack, []string{"s"}, "", ""},
	})
	assert.Equal(t, ActionSeekBack, r.Resolve("s"))
}
