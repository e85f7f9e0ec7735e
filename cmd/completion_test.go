package cmd

import (
	"slices"
	"testing"
)

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, name := range []string{"add", "edit", "refresh", "lookthrough", "serve", "topic", "help"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("Completion() has no %q subcommand", name)
		}
	}
	if _, ok := c.Flags["state"]; !ok {
		t.Error("Completion() has no -state global flag")
	}

	add := c.Sub["add"]
	for _, name := range []string{"symbol", "quantity", "price", "type", "location", "id"} {
		if _, ok := add.Flags[name]; !ok {
			t.Errorf("add completion has no -%s flag", name)
		}
	}
	if got := add.Flags["type"].Predict(""); !slices.Equal(got, []string{"stock", "bond", "coin"}) {
		t.Errorf("add -type predicts %v, want [stock bond coin]", got)
	}
	if got := c.Sub["lookthrough"].Flags["remainder"].Predict(""); !slices.Contains(got, "attribute") {
		t.Errorf("lookthrough -remainder predicts %v, want attribute", got)
	}
	if got := c.Sub["topic"].Args.Predict(""); !slices.Contains(got, "lookthrough") {
		t.Errorf("topic predicts %v, want lookthrough", got)
	}
}
