// Package keymap defines key bindings and action dispatch for the player.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Playback
	ActionPlayPause   Action = "play_pause"
	ActionStop        Action = "stop"
	ActionNextTrack   Action = "next_track"
	ActionPrevTrack   Action = "prev_track"
	ActionSeekForward Action = "seek_forward"
	ActionSeekBack    Action = "seek_back"
	ActionRetry       Action = "retry"
	ActionDismiss     Action = "dismiss_error"

	// Output
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionToggleMute Action = "toggle_mute"

	// Queue
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPlaySelect Action = "play_selected"
	ActionRemove     Action = "remove_track"
	ActionClearQueue Action = "clear_queue"
	ActionAddTrack   Action = "add_track"
)

// Binding ties keys to an action. Context groups bindings in the help view.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "output", "queue"
}

// All contains the default key bindings.
var All = []Binding{
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
	{ActionHelp, []string{"?"}, "Toggle help", "global"},

	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionStop, []string{"s"}, "Stop", "playback"},
	{ActionNextTrack, []string{"n", "pgdown"}, "Next track", "playback"},
	{ActionPrevTrack, []string{"p", "pgup"}, "Previous track", "playback"},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", "playback"},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", "playback"},
	{ActionRetry, []string{"r"}, "Retry after error", "playback"},
	{ActionDismiss, []string{"esc"}, "Dismiss error", "playback"},

	{ActionVolumeUp, []string{"+", "="}, "Volume up", "output"},
	{ActionVolumeDown, []string{"-"}, "Volume down", "output"},
	{ActionToggleMute, []string{"m"}, "Mute", "output"},

	{ActionMoveUp, []string{"k", "up"}, "Move up", "queue"},
	{ActionMoveDown, []string{"j", "down"}, "Move down", "queue"},
	{ActionPlaySelect, []string{"enter"}, "Play selected", "queue"},
	{ActionRemove, []string{"x", "delete"}, "Remove selected", "queue"},
	{ActionClearQueue, []string{"ctrl+d"}, "Clear queue", "queue"},
	{ActionAddTrack, []string{"a"}, "Add track by ID", "queue"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
