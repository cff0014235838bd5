// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package access

import (
	"testing"
	"time"

	"github.com/tomtom215/flixpilot/internal/models"
)

func rule(name, pattern string, isRegex bool) models.ClientRule {
	return models.ClientRule{ID: name, Name: name, Pattern: pattern, IsRegex: isRegex}
}

func TestMatch(t *testing.T) {
	m := NewMatcher()
	tests := []struct {
		name   string
		rule   models.ClientRule
		client string
		want   bool
	}{
		{"substring", rule("vlc", "VLC", false), "VLC for iOS", true},
		{"case insensitive substring", rule("plex", "plex", false), "Plex for Windows", true},
		{"no match", rule("plex", "Plex", false), "Emby Web", false},
		{"regex", rule("emby", `^emby (web|theater)$`, true), "Emby Theater", true},
		{"regex case insensitive", rule("kodi", `kodi`, true), "Emby for KODI", true},
		{"regex no match", rule("ios", `ios$`, true), "iOS player", false},
		{"invalid regex never matches", rule("bad", `(unclosed`, true), "(unclosed", false},
		{"empty client never matches", rule("any", "", false), "", false},
		{"empty client vs regex", rule("any", `.*`, true), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rule
			if got := m.Match(&r, tt.client); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", r.Pattern, tt.client, got, tt.want)
			}
		})
	}
}

func TestEvaluateBlacklistWins(t *testing.T) {
	m := NewMatcher()
	cfg := &models.ClientConfig{
		Whitelist: []models.ClientRule{rule("vlc-allowed", "VLC", false)},
		Blacklist: []models.ClientRule{rule("VLC", "vlc", false)},
	}
	d := m.Evaluate(cfg, "VLC")
	if d.Allowed() || d.Verdict != Blacklisted {
		t.Fatalf("expected blacklisted, got %v", d.Verdict)
	}
	if d.Rule == nil || d.Rule.Name != "VLC" {
		t.Errorf("expected matching rule VLC, got %+v", d.Rule)
	}
}

func TestEvaluateEmptyWhitelistAllowsAll(t *testing.T) {
	m := NewMatcher()
	cfg := &models.ClientConfig{Blacklist: []models.ClientRule{rule("Plex", "Plex", false)}}
	for _, client := range []string{"Anything", "Infuse", ""} {
		if d := m.Evaluate(cfg, client); !d.Allowed() {
			t.Errorf("client %q should be allowed with empty whitelist", client)
		}
	}
}

func TestEvaluateWhitelistRequired(t *testing.T) {
	m := NewMatcher()
	cfg := &models.ClientConfig{Whitelist: []models.ClientRule{rule("Infuse", "Infuse", false)}}

	if d := m.Evaluate(cfg, "Infuse 7"); !d.Allowed() {
		t.Error("whitelisted client denied")
	}
	d := m.Evaluate(cfg, "Random Player")
	if d.Verdict != NotWhitelisted || d.Rule != nil {
		t.Errorf("expected NotWhitelisted without rule, got %v %+v", d.Verdict, d.Rule)
	}
}

func TestCheckReasons(t *testing.T) {
	m := NewMatcher()
	cfg := DefaultClientConfig(time.Now())

	if got := m.Check(&cfg, "Plex Web"); got.Allowed || got.Reason != "客户端 Plex Web 在黑名单中" {
		t.Errorf("Plex Web: %+v", got)
	}
	if got := m.Check(&cfg, "Strange App"); got.Allowed || got.Reason != "客户端 Strange App 不在白名单中" {
		t.Errorf("Strange App: %+v", got)
	}
	if got := m.Check(&cfg, "Emby for Android"); !got.Allowed || got.Reason != "" {
		t.Errorf("Emby for Android: %+v", got)
	}
}

func TestDefaultClientConfig(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultClientConfig(now)
	if len(cfg.Whitelist) != 21 {
		t.Errorf("whitelist size = %d, want 21", len(cfg.Whitelist))
	}
	if len(cfg.Blacklist) != 4 {
		t.Errorf("blacklist size = %d, want 4", len(cfg.Blacklist))
	}
	if cfg.Whitelist[13].Name != "Emby for Kodi" || cfg.Whitelist[13].Pattern != "Kodi" {
		t.Errorf("unexpected rule 14: %+v", cfg.Whitelist[13])
	}
	if cfg.Blacklist[3].Description != "禁止 VLC 客户端" || cfg.Blacklist[3].ID != "4" {
		t.Errorf("unexpected VLC rule: %+v", cfg.Blacklist[3])
	}
	if !cfg.Blacklist[0].CreatedAt.Equal(now) {
		t.Error("seeded rules should carry the seed time")
	}
}

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		isRegex bool
		wantErr bool
	}{
		{"VLC", false, false},
		{"(unclosed", false, false},
		{"", false, true},
		{"   ", true, true},
		{`^Emby`, true, false},
		{`(unclosed`, true, true},
		{`(?!neg)`, true, true},
	}
	for _, tt := range tests {
		err := ValidatePattern(tt.pattern, tt.isRegex)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePattern(%q, %v) error = %v, wantErr %v", tt.pattern, tt.isRegex, err, tt.wantErr)
		}
	}
}
