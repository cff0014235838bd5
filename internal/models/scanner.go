// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package models

// ScanMode selects how TV episodes are bucketed.
type ScanMode string

const (
	// ScanModeStrict requires identical series, season, episode and size.
	ScanModeStrict ScanMode = "strict"
	// ScanModeLoose groups every version of the same episode.
	ScanModeLoose ScanMode = "loose"
)

// ParseScanMode maps anything other than "loose" to strict.
func ParseScanMode(s string) ScanMode {
	if s == string(ScanModeLoose) {
		return ScanModeLoose
	}
	return ScanModeStrict
}

// CollectionType is the Emby library kind the scanner understands.
type CollectionType string

const (
	CollectionMovies  CollectionType = "movies"
	CollectionTVShows CollectionType = "tvshows"
)

// ScannerLibrary is a library eligible for duplicate scanning.
type ScannerLibrary struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	CollectionType CollectionType `json:"collectionType"`
	Type           string         `json:"type,omitempty"`
}

// DuplicateFileEntry is one physical file inside a duplicate group.
type DuplicateFileEntry struct {
	EntryID             string `json:"entryId"`
	ItemID              string `json:"itemId"`
	MediaSourceID       string `json:"mediaSourceId,omitempty"`
	FileName            string `json:"fileName"`
	DisplayName         string `json:"displayName"`
	Path                string `json:"path"`
	Size                int64  `json:"size"`
	SizeLabel           string `json:"sizeLabel"`
	Info                string `json:"info"`
	Year                int    `json:"year,omitempty"`
	Season              *int   `json:"season"`
	Episode             *int   `json:"episode"`
	IsRecommendedKeep   bool   `json:"isRecommendedKeep"`
	IsRecommendedDelete bool   `json:"isRecommendedDelete"`
	CanDelete           bool   `json:"canDelete"`
}

// DuplicateGroupResult is a set of files believed to be the same content.
type DuplicateGroupResult struct {
	GroupID        string               `json:"groupId"`
	LibraryID      string               `json:"libraryId"`
	LibraryName    string               `json:"libraryName"`
	CollectionType CollectionType       `json:"collectionType"`
	Reason         string               `json:"reason"`
	KeepStrategy   string               `json:"keepStrategy"`
	IsMergedGroup  bool                 `json:"isMergedGroup"`
	Title          string               `json:"title"`
	Files          []DuplicateFileEntry `json:"files"`
}

// LibrarySummary aggregates one library's scan.
type LibrarySummary struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	CollectionType  CollectionType `json:"collectionType"`
	FileCount       int            `json:"fileCount"`
	TotalBytes      int64          `json:"totalBytes"`
	DuplicateBytes  int64          `json:"duplicateBytes"`
	DuplicateGroups int            `json:"duplicateGroups"`
	DuplicateFiles  int            `json:"duplicateFiles"`
}

// ScannerTotals aggregates all scanned libraries.
type ScannerTotals struct {
	TotalBytes      int64 `json:"totalBytes"`
	DuplicateBytes  int64 `json:"duplicateBytes"`
	TotalFiles      int   `json:"totalFiles"`
	DuplicateGroups int   `json:"duplicateGroups"`
	DuplicateFiles  int   `json:"duplicateFiles"`
}

// ScannerResult is the output of one scan invocation.
type ScannerResult struct {
	Mode        ScanMode               `json:"mode"`
	GeneratedAt string                 `json:"generatedAt"`
	Libraries   []LibrarySummary       `json:"libraries"`
	Duplicates  []DuplicateGroupResult `json:"duplicates"`
	Totals      ScannerTotals          `json:"totals"`
}

// ItemDeleteResult is the outcome of deleting one Emby item.
type ItemDeleteResult struct {
	ItemID  string `json:"itemId"`
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// ItemDeleteSummary counts successes and failures of a delete batch.
type ItemDeleteSummary struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// ItemDeleteReport is returned by a batch item delete.
type ItemDeleteReport struct {
	Success bool               `json:"success"`
	Summary ItemDeleteSummary  `json:"summary"`
	Results []ItemDeleteResult `json:"results"`
}
