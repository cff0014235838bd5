// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package access

import (
	"strconv"
	"time"

	"github.com/tomtom215/flixpilot/internal/models"
)

type seedRule struct {
	name, pattern, description string
}

var defaultWhitelist = []seedRule{
	{"Emby Web", "Emby Web", ""},
	{"Emby Theater", "Emby Theater", ""},
	{"Emby for Android", "Emby for Android", ""},
	{"Emby for iOS", "Emby for iOS", ""},
	{"Emby for Android TV", "Emby for Android TV", ""},
	{"Infuse", "Infuse", ""},
	{"Jellyfin Media Player", "Jellyfin Media Player", ""},
	{"Fileball", "Fileball", ""},
	{"VidHub", "VidHub", ""},
	{"SenPlayer", "SenPlayer", ""},
	{"Conflux", "Conflux", ""},
	{"Yamby", "Yamby", ""},
	{"Ember", "Ember", ""},
	{"Emby for Kodi", "Kodi", ""},
	{"Emby for Apple TV", "Apple TV", ""},
	{"Emby for Roku", "Roku", ""},
	{"Emby for Samsung", "Samsung", ""},
	{"Emby for LG", "LG", ""},
	{"Emby for Xbox", "Xbox", ""},
	{"Emby for PlayStation", "PlayStation", ""},
	{"Tsundoku", "Tsundoku", ""},
}

var defaultBlacklist = []seedRule{
	{"Plex", "Plex", "禁止使用 Plex 客户端"},
	{"DLNA", "DLNA", "禁止 DLNA 播放"},
	{"Unknown", "Unknown", "禁止未知客户端"},
	{"VLC", "VLC", "禁止 VLC 客户端"},
}

// DefaultClientConfig is the rule set a fresh installation starts with.
// Seeded rules get sequential ids per list.
func DefaultClientConfig(now time.Time) models.ClientConfig {
	return models.ClientConfig{
		Whitelist: seed(defaultWhitelist, now),
		Blacklist: seed(defaultBlacklist, now),
	}
}

func seed(rules []seedRule, now time.Time) []models.ClientRule {
	out := make([]models.ClientRule, len(rules))
	for i, r := range rules {
		out[i] = models.ClientRule{
			ID:          strconv.Itoa(i + 1),
			Name:        r.name,
			Pattern:     r.pattern,
			Description: r.description,
			CreatedAt:   now,
		}
	}
	return out
}
