package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// TestKeyMapBindingsAreUnique verifies no key is bound twice.
func TestKeyMapBindingsAreUnique(t *testing.T) {
	km := newKeyMap()
	seen := map[string]string{}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			if b.Help().Key == "" || b.Help().Desc == "" {
				t.Fatalf("binding %#v missing help", b.Keys())
			}
			for _, k := range b.Keys() {
				if prev, ok := seen[k]; ok {
					t.Fatalf("key %q bound to %q and %q", k, prev, b.Help().Desc)
				}
				seen[k] = b.Help().Desc
			}
		}
	}
}

// TestKeyMapMatchesPresses verifies representative key presses resolve to bindings.
func TestKeyMapMatchesPresses(t *testing.T) {
	km := newKeyMap()
	cases := []struct {
		msg  tea.KeyPressMsg
		want key.Binding
	}{
		{msg: keyRune('n'), want: km.addTask},
		{msg: keyRune('M'), want: km.bulkMove},
		{msg: tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}, want: km.toggleSel},
		{msg: tea.KeyPressMsg{Code: tea.KeyLeft}, want: km.moveLeft},
		{msg: tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl}, want: km.resetCols},
	}
	for _, tc := range cases {
		if !key.Matches(tc.msg, tc.want) {
			t.Fatalf("%q does not match %v", tc.msg.String(), tc.want.Keys())
		}
	}
}
