package auth

import (
	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/warden/internal/command"
)

type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyMissingPermission
	DenyNotWhitelisted
	DenyOwnerOnly
)

// Subject is what the authorizer knows about the invoking member.
type Subject struct {
	IsOwner     bool
	IsAdmin     bool
	Permissions int64
	Categories  []string
}

func (s Subject) has(c Category) bool {
	for _, got := range s.Categories {
		if got == string(c) {
			return true
		}
	}
	return false
}

type Decision struct {
	Allowed bool
	Reason  DenyReason
	// Permission names the missing native capability for DenyMissingPermission.
	Permission string
	// Silent denials produce no reply at all.
	Silent bool
}

// Requirement is the native capability and whitelist group of a moderation command.
type Requirement struct {
	Bit   int64
	Name  string
	Group Category
}

var moderation = map[string]Requirement{
	"ban":    {discordgo.PermissionBanMembers, "Ban Members", CategoryBan},
	"unban":  {discordgo.PermissionBanMembers, "Ban Members", CategoryBan},
	"kick":   {discordgo.PermissionKickMembers, "Kick Members", CategoryBan},
	"mute":   {discordgo.PermissionModerateMembers, "Moderate Members", CategoryMute},
	"unmute": {discordgo.PermissionModerateMembers, "Moderate Members", CategoryMute},
	"lock":   {discordgo.PermissionManageChannels, "Manage Channels", CategoryLock},
	"unlock": {discordgo.PermissionManageChannels, "Manage Channels", CategoryLock},
	"hide":   {discordgo.PermissionManageChannels, "Manage Channels", CategoryHide},
	"unhide": {discordgo.PermissionManageChannels, "Manage Channels", CategoryHide},
	"purge":  {discordgo.PermissionManageMessages, "Manage Messages", CategoryPurge},
}

func RequirementFor(name string) (Requirement, bool) {
	r, ok := moderation[name]
	return r, ok
}

var allow = Decision{Allowed: true}

// Authorize decides whether inv may run for s.
//
// Native permission is a floor the whitelist cannot lift. The whitelist only
// narrows: a prefixless call additionally needs "prefixless" or the command's
// group category, and music accepts only "prefixless".
func Authorize(inv command.Invocation, s Subject) Decision {
	if inv.Name == "afk" {
		return allow
	}
	if s.IsOwner || s.IsAdmin {
		return allow
	}

	switch command.KindOf(inv.Name) {
	case command.KindWhitelist:
		return Decision{Reason: DenyOwnerOnly, Silent: true}

	case command.KindModeration:
		req := moderation[inv.Name]
		if s.Permissions&req.Bit == 0 {
			return deny(inv, s, Decision{Reason: DenyMissingPermission, Permission: req.Name})
		}
		if inv.Mode == command.Prefixless && !s.has(CategoryPrefixless) && !s.has(req.Group) {
			return deny(inv, s, Decision{Reason: DenyNotWhitelisted})
		}
		return allow

	case command.KindMusic:
		if inv.Mode == command.Prefixless && !s.has(CategoryPrefixless) {
			return deny(inv, s, Decision{Reason: DenyNotWhitelisted})
		}
		return allow
	}

	// ping, help and unknown names need nothing; the dispatcher drops unknown ones.
	return allow
}

// deny marks prefixless denials of members with no whitelist entry at all as
// silent, so ordinary chat that happens to start with a command word gets no
// response.
func deny(inv command.Invocation, s Subject, d Decision) Decision {
	if inv.Mode == command.Prefixless && len(s.Categories) == 0 {
		d.Silent = true
	}
	return d
}
