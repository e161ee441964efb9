package auth

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/warden/internal/command"
)

func inv(mode command.Mode, name string) command.Invocation {
	return command.Invocation{Mode: mode, Name: name}
}

func TestBanPrefixedVsPrefixless(t *testing.T) {
	mod := Subject{Permissions: discordgo.PermissionBanMembers}

	if d := Authorize(inv(command.Prefixed, "ban"), mod); !d.Allowed {
		t.Fatalf("expected prefixed ban allowed, got %+v", d)
	}
	d := Authorize(inv(command.Prefixless, "ban"), mod)
	if d.Allowed || d.Reason != DenyNotWhitelisted {
		t.Fatalf("expected prefixless ban denied as not whitelisted, got %+v", d)
	}

	mod.Categories = []string{"prefixless"}
	if d := Authorize(inv(command.Prefixed, "ban"), mod); !d.Allowed {
		t.Fatalf("expected prefixed ban allowed with whitelist, got %+v", d)
	}
	if d := Authorize(inv(command.Prefixless, "ban"), mod); !d.Allowed {
		t.Fatalf("expected prefixless ban allowed with whitelist, got %+v", d)
	}
}

func TestWhitelistNeverLiftsNativePermission(t *testing.T) {
	s := Subject{Categories: []string{"prefixless", "purge"}}
	for _, mode := range []command.Mode{command.Prefixed, command.Prefixless} {
		d := Authorize(inv(mode, "purge"), s)
		if d.Allowed || d.Reason != DenyMissingPermission {
			t.Fatalf("%v: expected missing permission, got %+v", mode, d)
		}
		if d.Permission != "Manage Messages" {
			t.Fatalf("expected Manage Messages, got %q", d.Permission)
		}
		if d.Silent {
			t.Fatalf("expected a visible denial for a whitelisted member")
		}
	}
}

func TestGroupCategoryCoversGroup(t *testing.T) {
	s := Subject{
		Permissions: discordgo.PermissionBanMembers | discordgo.PermissionKickMembers,
		Categories:  []string{"ban"},
	}
	for _, name := range []string{"ban", "unban", "kick"} {
		if d := Authorize(inv(command.Prefixless, name), s); !d.Allowed {
			t.Fatalf("expected prefixless %s allowed by group ban, got %+v", name, d)
		}
	}

	s.Permissions |= discordgo.PermissionModerateMembers
	if d := Authorize(inv(command.Prefixless, "mute"), s); d.Allowed {
		t.Fatalf("expected mute to need its own group")
	}
}

func TestOwnerAndAdminBypass(t *testing.T) {
	for _, s := range []Subject{{IsOwner: true}, {IsAdmin: true}} {
		for _, name := range []string{"ban", "purge", "wl", "play", "lock"} {
			if d := Authorize(inv(command.Prefixless, name), s); !d.Allowed {
				t.Fatalf("expected %s allowed for %+v, got %+v", name, s, d)
			}
		}
	}
}

func TestWhitelistAdminIsOwnerOnly(t *testing.T) {
	s := Subject{
		Permissions: discordgo.PermissionManageMessages | discordgo.PermissionBanMembers,
		Categories:  []string{"prefixless", "ban"},
	}
	d := Authorize(inv(command.Prefixed, "wl"), s)
	if d.Allowed || d.Reason != DenyOwnerOnly || !d.Silent {
		t.Fatalf("expected silent owner-only denial, got %+v", d)
	}
}

func TestAFKAlwaysAllowed(t *testing.T) {
	for _, mode := range []command.Mode{command.Prefixed, command.Prefixless} {
		if d := Authorize(inv(mode, "afk"), Subject{}); !d.Allowed {
			t.Fatalf("expected afk allowed, got %+v", d)
		}
	}
}

func TestMusicNeedsOnlyPrefixlessCategory(t *testing.T) {
	if d := Authorize(inv(command.Prefixed, "play"), Subject{}); !d.Allowed {
		t.Fatalf("expected prefixed play open to everyone")
	}

	d := Authorize(inv(command.Prefixless, "play"), Subject{Categories: []string{"ban"}})
	if d.Allowed || d.Silent {
		t.Fatalf("expected visible denial for whitelisted member without prefixless, got %+v", d)
	}

	if d := Authorize(inv(command.Prefixless, "skip"), Subject{Categories: []string{"prefixless"}}); !d.Allowed {
		t.Fatalf("expected prefixless skip allowed, got %+v", d)
	}
}

func TestWhollyUnauthorizedPrefixlessIsSilent(t *testing.T) {
	for _, name := range []string{"ban", "play", "lock"} {
		d := Authorize(inv(command.Prefixless, name), Subject{})
		if d.Allowed || !d.Silent {
			t.Fatalf("expected silent denial for %s, got %+v", name, d)
		}
	}
	d := Authorize(inv(command.Prefixed, "ban"), Subject{})
	if d.Silent {
		t.Fatalf("expected prefixed denial to be visible")
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" PrefixLess ")
	if err != nil || c != CategoryPrefixless {
		t.Fatalf("expected prefixless, got %q %v", c, err)
	}
	if _, err := ParseCategory("advertise"); err != ErrUnknownCategory {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}
