package command

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		text string
		ok   bool
		mode Mode
		name string
		args []string
	}{
		{text: "$ban <@1> spam", ok: true, mode: Prefixed, name: "ban", args: []string{"<@1>", "spam"}},
		{text: "  $BAN   <@1>  ", ok: true, mode: Prefixed, name: "ban", args: []string{"<@1>"}},
		{text: "$", ok: false},
		{text: "$   ", ok: false},
		{text: "$p Never Gonna", ok: true, mode: Prefixed, name: "play", args: []string{"Never", "Gonna"}},
		{text: "$wl add <@2> ban", ok: true, mode: Prefixed, name: "wl", args: []string{"add", "<@2>", "ban"}},
		{text: "$whatever", ok: true, mode: Prefixed, name: "whatever"},
		{text: "afk brb", ok: true, mode: Prefixless, name: "afk", args: []string{"brb"}},
		{text: "AFK", ok: true, mode: Prefixless, name: "afk", args: []string{}},
		{text: "Ban <@1>", ok: true, mode: Prefixless, name: "ban", args: []string{"<@1>"}},
		{text: "dc", ok: true, mode: Prefixless, name: "disconnect", args: []string{}},
		{text: "j", ok: true, mode: Prefixless, name: "join", args: []string{}},
		{text: "P Some Song", ok: true, mode: Prefixless, name: "play", args: []string{"Some", "Song"}},
		{text: "wl add <@2> ban", ok: false},
		{text: "ping", ok: false},
		{text: "help me please", ok: false},
		{text: "hello there", ok: false},
		{text: "", ok: false},
	}

	for _, tc := range cases {
		inv, ok := Parse(tc.text, "$")
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.text, tc.ok, ok)
		}
		if !ok {
			continue
		}
		if inv.Mode != tc.mode || inv.Name != tc.name {
			t.Fatalf("%q: expected %v/%s, got %v/%s", tc.text, tc.mode, tc.name, inv.Mode, inv.Name)
		}
		if strings.Join(inv.Args, "|") != strings.Join(tc.args, "|") {
			t.Fatalf("%q: expected args %v, got %v", tc.text, tc.args, inv.Args)
		}
	}
}

func TestParsePreservesArgumentCase(t *testing.T) {
	inv, ok := Parse("PLAY Bohemian Rhapsody", "$")
	if !ok {
		t.Fatalf("expected a command")
	}
	if inv.Args[0] != "Bohemian" {
		t.Fatalf("expected argument case kept, got %q", inv.Args[0])
	}
}

func TestParseCustomPrefix(t *testing.T) {
	inv, ok := Parse("!!kick <@3>", "!!")
	if !ok || inv.Mode != Prefixed || inv.Name != "kick" {
		t.Fatalf("unexpected parse: %+v %v", inv, ok)
	}
	if _, ok := Parse("$kick <@3>", "!!"); ok {
		t.Fatalf("expected $kick to be ordinary chat under prefix !!")
	}
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	help := HelpText("$")
	for _, s := range Catalog() {
		if !strings.Contains(help, "`$"+s.Name) {
			t.Fatalf("help is missing %s", s.Name)
		}
	}
}
