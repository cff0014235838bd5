// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package scanner finds duplicate media files in Emby movie and TV libraries
// and deletes the items an admin picks.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

const (
	defaultPageSize       = 1000
	defaultDeleteInterval = 300 * time.Millisecond

	itemFields = "Path,MediaSources,Size,ProductionYear,SeriesName,IndexNumber,ParentIndexNumber,OriginalLanguage,ProductionLocations"
)

// ErrNoLibraries is returned when no movie or TV library matches the request.
var ErrNoLibraries = errors.New("未找到可扫描的媒体库，请确认 Emby 配置是否正确")

// Options tunes paging and delete pacing.
type Options struct {
	PageSize       int
	DeleteInterval time.Duration
}

// Scanner runs duplicate scans against any Emby connection.
type Scanner struct {
	pool           *emby.Pool
	pageSize       int
	deleteInterval time.Duration
	now            func() time.Time
}

// New returns a Scanner using clients from pool.
func New(pool *emby.Pool, opts Options) *Scanner {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.DeleteInterval < 0 {
		opts.DeleteInterval = defaultDeleteInterval
	}
	return &Scanner{
		pool:           pool,
		pageSize:       opts.PageSize,
		deleteInterval: opts.DeleteInterval,
		now:            time.Now,
	}
}

// Request selects what Scan looks at. Empty LibraryIDs means every library.
type Request struct {
	Mode       models.ScanMode
	LibraryIDs []string
}

func (s *Scanner) client(conn models.EmbyConnection) (*emby.Client, error) {
	return s.pool.Get(conn, emby.IdentityDashboard)
}

// ListLibraries returns the movie and TV libraries of the server.
func (s *Scanner) ListLibraries(ctx context.Context, conn models.EmbyConnection) ([]models.ScannerLibrary, error) {
	client, err := s.client(conn)
	if err != nil {
		return nil, err
	}
	return listLibraries(ctx, client)
}

func listLibraries(ctx context.Context, client *emby.Client) ([]models.ScannerLibrary, error) {
	folders, err := client.GetMediaFolders(ctx)
	if err != nil {
		return nil, err
	}
	libs := make([]models.ScannerLibrary, 0, len(folders))
	for _, f := range folders {
		ct := models.CollectionType(strings.ToLower(f.CollectionType))
		if f.ID == "" || f.Name == "" || (ct != models.CollectionMovies && ct != models.CollectionTVShows) {
			continue
		}
		libs = append(libs, models.ScannerLibrary{ID: f.ID, Name: f.Name, CollectionType: ct, Type: f.Type})
	}
	return libs, nil
}

// Scan walks the selected libraries and returns their duplicate groups. The
// first Emby error aborts the whole scan.
func (s *Scanner) Scan(ctx context.Context, conn models.EmbyConnection, req Request) (*models.ScannerResult, error) {
	start := time.Now()
	mode := req.Mode
	if mode != models.ScanModeLoose {
		mode = models.ScanModeStrict
	}

	client, err := s.client(conn)
	if err != nil {
		return nil, err
	}
	libs, err := listLibraries(ctx, client)
	if err != nil {
		return nil, err
	}
	libs = filterLibraries(libs, req.LibraryIDs)
	if len(libs) == 0 {
		return nil, ErrNoLibraries
	}

	result := &models.ScannerResult{
		Mode:       mode,
		Libraries:  make([]models.LibrarySummary, 0, len(libs)),
		Duplicates: []models.DuplicateGroupResult{},
	}
	for _, lib := range libs {
		items, err := s.fetchAllItems(ctx, client, lib)
		if err != nil {
			return nil, fmt.Errorf("scan library %s: %w", lib.Name, err)
		}
		summary, groups := groupLibrary(lib, items, mode)

		result.Libraries = append(result.Libraries, summary)
		result.Duplicates = append(result.Duplicates, groups...)
		result.Totals.TotalBytes += summary.TotalBytes
		result.Totals.TotalFiles += summary.FileCount
		result.Totals.DuplicateBytes += summary.DuplicateBytes
		result.Totals.DuplicateGroups += summary.DuplicateGroups
		result.Totals.DuplicateFiles += summary.DuplicateFiles
	}
	result.GeneratedAt = s.now().UTC().Format(time.RFC3339)

	metrics.RecordScan(string(mode), time.Since(start), result.Totals.DuplicateGroups)
	logging.Info().
		Str("component", "scanner").
		Str("mode", string(mode)).
		Int("libraries", len(libs)).
		Int("files", result.Totals.TotalFiles).
		Int("duplicate_groups", result.Totals.DuplicateGroups).
		Dur("duration", time.Since(start)).
		Msg("Duplicate scan finished")
	return result, nil
}

func filterLibraries(libs []models.ScannerLibrary, ids []string) []models.ScannerLibrary {
	if len(ids) == 0 {
		return libs
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := libs[:0]
	for _, lib := range libs {
		if _, ok := want[lib.ID]; ok {
			out = append(out, lib)
		}
	}
	return out
}

// fetchAllItems pages through a library until an empty or short page.
func (s *Scanner) fetchAllItems(ctx context.Context, client *emby.Client, lib models.ScannerLibrary) ([]models.EmbyItem, error) {
	itemType := "Movie"
	if lib.CollectionType == models.CollectionTVShows {
		itemType = "Episode"
	}

	var items []models.EmbyItem
	for startIndex := 0; ; startIndex += s.pageSize {
		page, err := client.GetItems(ctx, []emby.Param{
			{Key: "ParentId", Value: lib.ID},
			{Key: "Recursive", Value: "true"},
			{Key: "IncludeItemTypes", Value: itemType},
			{Key: "Fields", Value: itemFields},
			{Key: "StartIndex", Value: strconv.Itoa(startIndex)},
			{Key: "Limit", Value: strconv.Itoa(s.pageSize)},
		})
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		items = append(items, page.Items...)
		if len(page.Items) < s.pageSize {
			break
		}
	}
	return items, nil
}
