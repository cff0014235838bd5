// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package models

// EmbyConnection is a stored Emby server the service talks to.
type EmbyConnection struct {
	Name      string `json:"name"`
	ServerURL string `json:"serverUrl"`
	APIKey    string `json:"apiKey"`
}

// IsConfigured reports whether both the URL and API key are present.
func (c EmbyConnection) IsConfigured() bool {
	return c.ServerURL != "" && c.APIKey != ""
}

// EmbySession is one entry of GET /Sessions.
type EmbySession struct {
	ID                 string              `json:"Id"`
	Client             string              `json:"Client"`
	DeviceID           string              `json:"DeviceId"`
	DeviceName         string              `json:"DeviceName"`
	DeviceType         string              `json:"DeviceType,omitempty"`
	ApplicationVersion string              `json:"ApplicationVersion,omitempty"`
	UserID             string              `json:"UserId"`
	UserName           string              `json:"UserName"`
	RemoteEndPoint     string              `json:"RemoteEndPoint,omitempty"`
	LastActivityDate   string              `json:"LastActivityDate,omitempty"`
	NowPlayingItem     *EmbyNowPlayingItem `json:"NowPlayingItem,omitempty"`
}

// ClientName is the name access rules are evaluated against: the reported
// client, or the device name when the client is blank.
func (s *EmbySession) ClientName() string {
	if s.Client != "" {
		return s.Client
	}
	return s.DeviceName
}

// IsPlaying reports whether the session currently has a media item loaded.
func (s *EmbySession) IsPlaying() bool {
	return s.NowPlayingItem != nil
}

// EmbyNowPlayingItem is the subset of the playing item the monitor reports.
type EmbyNowPlayingItem struct {
	ID         string `json:"Id"`
	Name       string `json:"Name"`
	Type       string `json:"Type,omitempty"`
	SeriesName string `json:"SeriesName,omitempty"`
}

// EmbyMessage is the body of POST /Sessions/{id}/Message.
type EmbyMessage struct {
	Header    string `json:"Header"`
	Text      string `json:"Text"`
	TimeoutMs int    `json:"TimeoutMs"`
}

// EmbyDevice is one entry of GET /Devices.
type EmbyDevice struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	AppName          string `json:"AppName"`
	AppVersion       string `json:"AppVersion,omitempty"`
	Client           string `json:"Client,omitempty"`
	LastUserName     string `json:"LastUserName"`
	LastUserID       string `json:"LastUserId,omitempty"`
	DateLastActivity string `json:"DateLastActivity"`
}

// ClientName prefers AppName, matching how Emby labels devices in its UI.
func (d *EmbyDevice) ClientName() string {
	if d.AppName != "" {
		return d.AppName
	}
	return d.Client
}

// EmbyDevicesResponse wraps GET /Devices.
type EmbyDevicesResponse struct {
	Items            []EmbyDevice `json:"Items"`
	TotalRecordCount int          `json:"TotalRecordCount"`
}

// EmbyMediaFolder is a top-level library from GET /Library/MediaFolders.
type EmbyMediaFolder struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType"`
	Type           string `json:"Type"`
}

// EmbyMediaFoldersResponse wraps GET /Library/MediaFolders.
type EmbyMediaFoldersResponse struct {
	Items []EmbyMediaFolder `json:"Items"`
}

// EmbyItem is a library item as returned by GET /Items with the scanner's
// Fields selection.
type EmbyItem struct {
	ID                  string            `json:"Id"`
	Name                string            `json:"Name"`
	Type                string            `json:"Type,omitempty"`
	SeriesName          string            `json:"SeriesName,omitempty"`
	ParentIndexNumber   *int              `json:"ParentIndexNumber,omitempty"`
	IndexNumber         *int              `json:"IndexNumber,omitempty"`
	ProductionYear      int               `json:"ProductionYear,omitempty"`
	OriginalLanguage    string            `json:"OriginalLanguage,omitempty"`
	ProductionLocations []string          `json:"ProductionLocations,omitempty"`
	MediaSources        []EmbyMediaSource `json:"MediaSources,omitempty"`
	Path                string            `json:"Path,omitempty"`
}

// EmbyMediaSource is one physical file of an item.
type EmbyMediaSource struct {
	ID           string            `json:"Id"`
	Path         string            `json:"Path"`
	Name         string            `json:"Name,omitempty"`
	Size         int64             `json:"Size"`
	Container    string            `json:"Container,omitempty"`
	MediaStreams []EmbyMediaStream `json:"MediaStreams,omitempty"`
}

// EmbyMediaStream is a video, audio or subtitle stream inside a source.
type EmbyMediaStream struct {
	Type         string `json:"Type"`
	Width        int    `json:"Width,omitempty"`
	Height       int    `json:"Height,omitempty"`
	Codec        string `json:"Codec,omitempty"`
	Language     string `json:"Language,omitempty"`
	Title        string `json:"Title,omitempty"`
	DisplayTitle string `json:"DisplayTitle,omitempty"`
	VideoRange   string `json:"VideoRange,omitempty"`
}

// EmbyItemsResponse wraps GET /Items.
type EmbyItemsResponse struct {
	Items            []EmbyItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
}

// EmbySystemInfo is the subset of GET /System/Info used for health checks.
type EmbySystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
	ID         string `json:"Id"`
}
