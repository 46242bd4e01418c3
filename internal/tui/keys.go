package tui

import (
	"charm.land/bubbles/v2/key"

	"github.com/colonyops/harvest/internal/core/config"
)

var actionHelp = map[string]string{
	config.ActionNextPage:      "next page",
	config.ActionPrevPage:      "prev page",
	config.ActionSearch:        "search",
	config.ActionRecord:        "record",
	config.ActionLinks:         "links",
	config.ActionColumns:       "columns",
	config.ActionGallery:       "gallery",
	config.ActionChat:          "chat",
	config.ActionExportCSV:     "export csv",
	config.ActionExportJSON:    "export json",
	config.ActionCopyRecord:    "copy",
	config.ActionNotifications: "notifications",
	config.ActionRefresh:       "refresh",
}

// footerActions are the actions advertised in the grid footer, in order.
var footerActions = []string{
	config.ActionSearch,
	config.ActionPrevPage,
	config.ActionNextPage,
	config.ActionRecord,
	config.ActionLinks,
	config.ActionColumns,
	config.ActionGallery,
	config.ActionChat,
	config.ActionExportCSV,
	config.ActionNotifications,
}

// KeyMap resolves grid key presses to configured actions.
type KeyMap struct {
	byKey    map[string]string
	bindings map[string]key.Binding
}

// NewKeyMap builds a key map from action -> key assignments. Config
// validation guarantees keys are unique.
func NewKeyMap(keys map[string]string) KeyMap {
	km := KeyMap{
		byKey:    make(map[string]string, len(keys)),
		bindings: make(map[string]key.Binding, len(keys)),
	}
	for action, k := range keys {
		km.byKey[k] = action
		km.bindings[action] = key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, actionHelp[action]),
		)
	}
	return km
}

// Resolve returns the action bound to k.
func (km KeyMap) Resolve(k string) (string, bool) {
	action, ok := km.byKey[k]
	return action, ok
}

// Key returns the key bound to action.
func (km KeyMap) Key(action string) string {
	b, ok := km.bindings[action]
	if !ok {
		return ""
	}
	return b.Help().Key
}

// ShortHelp returns the bindings shown in the grid footer.
func (km KeyMap) ShortHelp() []key.Binding {
	out := make([]key.Binding, 0, len(footerActions)+1)
	for _, action := range footerActions {
		if b, ok := km.bindings[action]; ok {
			out = append(out, b)
		}
	}
	return append(out, key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")))
}
