// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package scanner

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/tomtom215/flixpilot/internal/models"
)

var (
	chineseLanguageCodes = map[string]bool{
		"zh": true, "chi": true, "zho": true, "yue": true, "wuu": true, "cn": true, "zh-cn": true, "zh-tw": true,
	}
	chineseStreamLanguages = map[string]bool{
		"chi": true, "zho": true, "chn": true, "zh": true, "yue": true, "wuu": true,
	}
	chineseLocations = map[string]bool{
		"china": true, "hong kong": true, "taiwan": true, "people's republic of china": true,
	}
	streamKeywords = []string{
		"chinese", "中文", "简", "繁", "chs", "cht", "hanzi", "中字", "zh-cn", "zh-tw", "国语", "普通话", "粤语", "cantonese", "mandarin",
	}
	pathKeywords = []string{
		"国语", "中配", "台配", "粤语", "chinese", "cantonese", "mandarin", "cmn", "dubbed",
	}

	episodeTag = regexp.MustCompile(`^S\d+E\d+`)
	allDigits  = regexp.MustCompile(`^\d+$`)
)

// mediaInfo builds the " | " separated quality tag of a file: resolution,
// codec, HDR, DV, Chinese audio/subtitles and release group.
func mediaInfo(item *models.EmbyItem, source *models.EmbyMediaSource) string {
	var parts []string

	if video := videoStream(source); video != nil {
		if video.Width > 0 && video.Height > 0 {
			parts = append(parts, resolutionLabel(video.Width, video.Height))
		}
		if video.Codec != "" {
			parts = append(parts, strings.ToUpper(video.Codec))
		}
		vr := strings.ToUpper(video.VideoRange)
		if strings.Contains(vr, "HDR") {
			parts = append(parts, "HDR")
		}
		if strings.Contains(vr, "DOVI") || strings.Contains(vr, "DV") {
			parts = append(parts, "DV")
		}
	}

	if hasChineseContent(item, source) {
		parts = append(parts, "中字/国语")
	}

	p := source.Path
	if p == "" {
		p = item.Path
	}
	if group := releaseGroup(p); group != "" {
		parts = append(parts, group)
	}
	return strings.Join(parts, " | ")
}

func videoStream(source *models.EmbyMediaSource) *models.EmbyMediaStream {
	for i := range source.MediaStreams {
		if source.MediaStreams[i].Type == "Video" {
			return &source.MediaStreams[i]
		}
	}
	return nil
}

func resolutionLabel(w, h int) string {
	switch {
	case w >= 3800 || h >= 2100:
		return "4K"
	case w >= 1900 || h >= 1000:
		return "1080P"
	case w >= 1200 || h >= 700:
		return "720P"
	default:
		return "SD"
	}
}

func hasChineseContent(item *models.EmbyItem, source *models.EmbyMediaSource) bool {
	if chineseLanguageCodes[strings.ToLower(item.OriginalLanguage)] {
		return true
	}
	for _, loc := range item.ProductionLocations {
		if chineseLocations[strings.ToLower(loc)] {
			return true
		}
	}

	for i := range source.MediaStreams {
		s := &source.MediaStreams[i]
		if s.Type != "Subtitle" && s.Type != "Audio" {
			continue
		}
		if chineseStreamLanguages[strings.ToLower(s.Language)] {
			return true
		}
		if containsAny(strings.ToLower(s.Title+s.DisplayTitle), streamKeywords) {
			return true
		}
	}

	p := source.Path
	if p == "" {
		p = item.Path
	}
	if containsAny(strings.ToLower(p), pathKeywords) {
		return true
	}
	return hasCJK(item.Name)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// hasCJK reports whether s contains a CJK Unified Ideograph (U+4E00..U+9FFF).
func hasCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// nameLength is the length of s in UTF-16 code units; characters outside the
// BMP count twice.
func nameLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// releaseGroup is the last hyphen segment of the extension-less file name,
// e.g. "Movie.2020.1080p.BluRay-FGT.mkv" gives "FGT".
func releaseGroup(filePath string) string {
	name := fileName(filePath)
	if name == "" {
		return ""
	}
	base := name
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		base = name[:i]
	}
	if !strings.Contains(base, "-") {
		return ""
	}
	group := strings.TrimSpace(base[strings.LastIndex(base, "-")+1:])
	n := nameLength(group)
	if n < 2 || n > 15 || episodeTag.MatchString(group) || allDigits.MatchString(group) {
		return ""
	}
	return group
}

// fileName returns the last path segment, accepting Windows separators and
// ignoring trailing slashes.
func fileName(filePath string) string {
	if filePath == "" {
		return ""
	}
	normalized := strings.TrimRight(strings.ReplaceAll(filePath, `\`, "/"), "/")
	return normalized[strings.LastIndex(normalized, "/")+1:]
}
