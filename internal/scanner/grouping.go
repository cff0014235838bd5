// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package scanner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/flixpilot/internal/models"
)

const (
	reasonTVLoose   = "同一集出现多个版本"
	reasonTVStrict  = "同集同体积的重复文件"
	reasonMovies    = "文件体积完全一致"
	keepLargestName = "保留体积最大、文件名最长的版本"
	keepLongestName = "保留文件名最长的版本"
)

// groupLibrary buckets every file of a library and keeps the buckets that
// hold real duplicates. Groups come back in first-seen order.
func groupLibrary(lib models.ScannerLibrary, items []models.EmbyItem, mode models.ScanMode) (models.LibrarySummary, []models.DuplicateGroupResult) {
	summary := models.LibrarySummary{
		ID:             lib.ID,
		Name:           lib.Name,
		CollectionType: lib.CollectionType,
	}
	tv := lib.CollectionType == models.CollectionTVShows

	buckets := make(map[string]*models.DuplicateGroupResult)
	var order []string

	for i := range items {
		item := &items[i]
		for j := range item.MediaSources {
			source := &item.MediaSources[j]
			if source.Size <= 0 {
				continue
			}
			summary.TotalBytes += source.Size
			summary.FileCount++

			key := groupKey(tv, item, source.Size, mode)
			bucket, ok := buckets[key]
			if !ok {
				bucket = &models.DuplicateGroupResult{
					GroupID:        key,
					LibraryID:      lib.ID,
					LibraryName:    lib.Name,
					CollectionType: lib.CollectionType,
					Reason:         groupReason(tv, mode),
					KeepStrategy:   keepStrategy(tv, mode),
					Title:          groupTitle(tv, item),
				}
				buckets[key] = bucket
				order = append(order, key)
			}
			bucket.Files = append(bucket.Files, newEntry(item, source))
		}
	}

	groups := []models.DuplicateGroupResult{}
	for _, key := range order {
		bucket := buckets[key]
		if !isDuplicateBucket(bucket.Files) {
			continue
		}
		rankFiles(bucket.Files, tv && mode == models.ScanModeLoose)
		markGroup(bucket)

		for k := range bucket.Files {
			if bucket.Files[k].IsRecommendedDelete {
				summary.DuplicateBytes += bucket.Files[k].Size
				summary.DuplicateFiles++
			}
		}
		groups = append(groups, *bucket)
	}
	summary.DuplicateGroups = len(groups)
	return summary, groups
}

func newEntry(item *models.EmbyItem, source *models.EmbyMediaSource) models.DuplicateFileEntry {
	path := source.Path
	if path == "" {
		path = item.Path
	}
	name := fileName(path)
	display := name
	if display == "" {
		display = item.Name
	}
	return models.DuplicateFileEntry{
		ItemID:        item.ID,
		MediaSourceID: source.ID,
		FileName:      name,
		DisplayName:   display,
		Path:          path,
		Size:          source.Size,
		SizeLabel:     humanize.IBytes(uint64(source.Size)),
		Info:          mediaInfo(item, source),
		Year:          item.ProductionYear,
		Season:        item.ParentIndexNumber,
		Episode:       item.IndexNumber,
		CanDelete:     true,
	}
}

// groupKey: TV strict series|season|episode|size, TV loose
// series|season|episode, movies size only. Movies of identical size collide
// even when unrelated.
func groupKey(tv bool, item *models.EmbyItem, size int64, mode models.ScanMode) string {
	sizeKey := strconv.FormatInt(size, 10)
	if !tv {
		return sizeKey
	}
	series := item.SeriesName
	if series == "" {
		series = item.Name
	}
	key := strings.ToLower(series) + "|" + indexOrMissing(item.ParentIndexNumber) + "|" + indexOrMissing(item.IndexNumber)
	if mode == models.ScanModeLoose {
		return key
	}
	return key + "|" + sizeKey
}

func indexOrMissing(n *int) string {
	if n == nil {
		return "-1"
	}
	return strconv.Itoa(*n)
}

func groupTitle(tv bool, item *models.EmbyItem) string {
	if !tv {
		if item.ProductionYear != 0 {
			return fmt.Sprintf("%s (%d)", item.Name, item.ProductionYear)
		}
		return item.Name
	}
	series := item.SeriesName
	if series == "" {
		series = item.Name
	}
	return series + " " + indexLabel("S", item.ParentIndexNumber) + indexLabel("E", item.IndexNumber)
}

func indexLabel(prefix string, n *int) string {
	if n == nil || *n < 0 {
		return prefix + "??"
	}
	return fmt.Sprintf("%s%02d", prefix, *n)
}

func groupReason(tv bool, mode models.ScanMode) string {
	switch {
	case !tv:
		return reasonMovies
	case mode == models.ScanModeLoose:
		return reasonTVLoose
	default:
		return reasonTVStrict
	}
}

func keepStrategy(tv bool, mode models.ScanMode) string {
	if tv && mode == models.ScanModeLoose {
		return keepLargestName
	}
	return keepLongestName
}

// isDuplicateBucket drops singletons and buckets that reference the same
// file more than once.
func isDuplicateBucket(files []models.DuplicateFileEntry) bool {
	if len(files) <= 1 {
		return false
	}
	paths := make(map[string]struct{}, len(files))
	for i := range files {
		p := files[i].Path
		if p == "" {
			p = files[i].FileName
		}
		paths[p] = struct{}{}
	}
	return len(paths) > 1
}

// rankFiles orders the best keep candidate first: larger first when
// bySizeFirst, then longer file name, then larger size. The sort is stable.
func rankFiles(files []models.DuplicateFileEntry, bySizeFirst bool) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := &files[i], &files[j]
		if bySizeFirst && a.Size != b.Size {
			return a.Size > b.Size
		}
		la, lb := nameLength(a.FileName), nameLength(b.FileName)
		if la != lb {
			return la > lb
		}
		return a.Size > b.Size
	})
}

// markGroup sets keep/delete flags and entry ids on a ranked bucket. A group
// whose files all belong to one Emby item cannot be resolved through the
// item delete API, so nothing in it is deletable.
func markGroup(g *models.DuplicateGroupResult) {
	merged := true
	for i := 1; i < len(g.Files); i++ {
		if g.Files[i].ItemID != g.Files[0].ItemID {
			merged = false
			break
		}
	}
	g.IsMergedGroup = merged

	for i := range g.Files {
		f := &g.Files[i]
		f.EntryID = fmt.Sprintf("%s-%d-%s", g.GroupID, i, f.ItemID)
		f.IsRecommendedKeep = i == 0
		f.IsRecommendedDelete = i != 0
		f.CanDelete = !merged && i != 0
	}
}
