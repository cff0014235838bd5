// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package scanner

import (
	"testing"

	"github.com/tomtom215/flixpilot/internal/models"
)

func TestResolutionLabel(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{3840, 2160, "4K"},
		{3800, 1600, "4K"},
		{1920, 800, "1080P"},
		{1440, 1080, "1080P"},
		{1280, 720, "720P"},
		{960, 720, "720P"},
		{720, 480, "SD"},
	}
	for _, tt := range tests {
		if got := resolutionLabel(tt.w, tt.h); got != tt.want {
			t.Errorf("resolutionLabel(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestMediaInfo(t *testing.T) {
	item := &models.EmbyItem{Name: "Dune", OriginalLanguage: "en"}
	source := &models.EmbyMediaSource{
		Path: "/movies/Dune.2021.2160p.UHD.BluRay.x265-FraMeSToR.mkv",
		MediaStreams: []models.EmbyMediaStream{
			{Type: "Video", Width: 3840, Height: 2160, Codec: "hevc", VideoRange: "HDR DoVi"},
			{Type: "Subtitle", Language: "chi", Title: "简体"},
		},
	}
	want := "4K | HEVC | HDR | DV | 中字/国语 | FraMeSToR"
	if got := mediaInfo(item, source); got != want {
		t.Errorf("mediaInfo = %q, want %q", got, want)
	}

	bare := &models.EmbyMediaSource{Path: "/movies/plain.mkv"}
	if got := mediaInfo(&models.EmbyItem{Name: "Plain"}, bare); got != "" {
		t.Errorf("expected empty info, got %q", got)
	}
}

func TestHasChineseContent(t *testing.T) {
	tests := []struct {
		name   string
		item   models.EmbyItem
		source models.EmbyMediaSource
		want   bool
	}{
		{"original language", models.EmbyItem{OriginalLanguage: "zh-CN"}, models.EmbyMediaSource{}, true},
		{"production location", models.EmbyItem{ProductionLocations: []string{"Hong Kong"}}, models.EmbyMediaSource{}, true},
		{"audio language", models.EmbyItem{}, models.EmbyMediaSource{MediaStreams: []models.EmbyMediaStream{{Type: "Audio", Language: "yue"}}}, true},
		{"subtitle title keyword", models.EmbyItem{}, models.EmbyMediaSource{MediaStreams: []models.EmbyMediaStream{{Type: "Subtitle", DisplayTitle: "Chinese Simplified"}}}, true},
		{"video stream ignored", models.EmbyItem{}, models.EmbyMediaSource{MediaStreams: []models.EmbyMediaStream{{Type: "Video", Language: "chi"}}}, false},
		{"path keyword", models.EmbyItem{}, models.EmbyMediaSource{Path: "/tv/Show.S01E01.Mandarin.mkv"}, true},
		{"cjk name", models.EmbyItem{Name: "流浪地球"}, models.EmbyMediaSource{}, true},
		{"nothing", models.EmbyItem{Name: "Heat", OriginalLanguage: "en"}, models.EmbyMediaSource{Path: "/m/Heat.mkv"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasChineseContent(&tt.item, &tt.source); got != tt.want {
				t.Errorf("hasChineseContent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReleaseGroup(t *testing.T) {
	tests := map[string]string{
		"/m/Movie.2020.1080p.BluRay.x264-SPARKS.mkv": "SPARKS",
		`D:\Media\Show-S01E02.mkv`:                   "",
		"/m/Movie-2020.mkv":                          "",
		"/m/Movie-X.mkv":                             "",
		"/m/Movie-ThisGroupNameIsTooLong.mkv":        "",
		"/m/NoHyphen.mkv":                            "",
		"/m/Film - Extended - HDS.mkv":               "HDS",
		"":                                           "",
	}
	for in, want := range tests {
		if got := releaseGroup(in); got != want {
			t.Errorf("releaseGroup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"/movies/a/b.mkv":      "b.mkv",
		`C:\media\show\e1.mp4`: "e1.mp4",
		"/movies/folder/":      "folder",
		"plain.mkv":            "plain.mkv",
		"":                     "",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}
