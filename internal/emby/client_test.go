// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package emby

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/flixpilot/internal/models"
)

func TestBuildURL(t *testing.T) {
	client, err := NewClient(models.EmbyConnection{
		ServerURL: "http://emby.local:8096/",
		APIKey:    "k3y",
	}, IdentityDashboard, Options{})
	checkNoError(t, err)

	tests := []struct {
		name     string
		endpoint string
		params   []Param
		want     string
	}{
		{"no params", "Sessions", nil, "http://emby.local:8096/emby/Sessions?api_key=k3y"},
		{"leading slash", "/System/Info", nil, "http://emby.local:8096/emby/System/Info?api_key=k3y"},
		{
			name:     "ordered params skip empty",
			endpoint: "Items",
			params: []Param{
				{Key: "ParentId", Value: "lib1"},
				{Key: "SearchTerm", Value: ""},
				{Key: "Recursive", Value: "true"},
			},
			want: "http://emby.local:8096/emby/Items?ParentId=lib1&Recursive=true&api_key=k3y",
		},
		{"escaped value", "Devices", []Param{{Key: "Id", Value: "a b&c"}}, "http://emby.local:8096/emby/Devices?Id=a+b%26c&api_key=k3y"},
		{"existing query", "Items?Limit=5", nil, "http://emby.local:8096/emby/Items?Limit=5&api_key=k3y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkStringEqual(t, "url", client.BuildURL(tt.endpoint, tt.params...), tt.want)
		})
	}
}

func TestAuthorizationHeader(t *testing.T) {
	client, err := NewClient(models.EmbyConnection{ServerURL: "http://e", APIKey: "abc"}, IdentityMonitor, Options{})
	checkNoError(t, err)
	checkStringEqual(t, "header", client.AuthorizationHeader(),
		`MediaBrowser Client="FlixPilot", Device="Monitor", DeviceId="flixpilot-monitor", Version="1.0", Token="abc"`)
}

func TestNewClientNotConfigured(t *testing.T) {
	for _, conn := range []models.EmbyConnection{
		{},
		{ServerURL: "http://emby"},
		{APIKey: "key"},
	} {
		if _, err := NewClient(conn, IdentityWeb, Options{}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("NewClient(%+v) error = %v, want ErrNotConfigured", conn, err)
		}
	}
}

func TestGetSessions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/emby/Sessions")
		checkStringEqual(t, "method", r.Method, http.MethodGet)
		checkStringEqual(t, "api_key", r.URL.Query().Get("api_key"), "test-key")
		if !strings.Contains(r.Header.Get("X-Emby-Authorization"), `DeviceId="flixpilot-monitor"`) {
			t.Errorf("missing identity in auth header: %q", r.Header.Get("X-Emby-Authorization"))
		}
		checkStringEqual(t, "accept", r.Header.Get("Accept"), "application/json")
		_, _ = w.Write([]byte(`[
			{"Id":"s1","Client":"Emby Web","DeviceName":"Chrome","UserName":"alice","NowPlayingItem":{"Id":"i1","Name":"Film"}},
			{"Id":"s2","Client":"","DeviceName":"VLC Player","UserName":"bob"}
		]`))
	}, Options{})

	sessions, err := client.GetSessions(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "len", len(sessions), 2)
	checkStringEqual(t, "client", sessions[0].ClientName(), "Emby Web")
	checkStringEqual(t, "fallback client", sessions[1].ClientName(), "VLC Player")
	if !sessions[0].IsPlaying() || sessions[1].IsPlaying() {
		t.Error("IsPlaying mismatch")
	}
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"body text", http.StatusInternalServerError, "boom", "Emby API error 500: boom"},
		{"status text fallback", http.StatusNotFound, "", "Emby API error 404: Not Found"},
		{"unauthorized", http.StatusUnauthorized, "Access token is invalid or expired.", "Emby API error 401: Access token is invalid or expired."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, Options{})

			_, err := client.GetSystemInfo(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			checkStringEqual(t, "message", apiErr.Error(), tt.want)
			checkIntEqual(t, "StatusCode()", StatusCode(err), tt.status)
		})
	}
}

func TestFetchJSONNoContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	out := map[string]string{"keep": "me"}
	err := client.FetchJSON(context.Background(), http.MethodPost, "Sessions/x/Playing/Stop", nil, nil, &out)
	checkNoError(t, err)
	checkStringEqual(t, "untouched", out["keep"], "me")
}

func TestSendMessageBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/emby/Sessions/s 1/Message")
		checkStringEqual(t, "content-type", r.Header.Get("Content-Type"), "application/json")
		body, _ := io.ReadAll(r.Body)
		checkStringEqual(t, "body", string(body), `{"Header":"h","Text":"t","TimeoutMs":10000}`)
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	err := client.SendMessage(context.Background(), "s 1", models.EmbyMessage{Header: "h", Text: "t", TimeoutMs: 10000})
	checkNoError(t, err)
}

func TestDeleteDeviceAndItem(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "method", r.Method, http.MethodDelete)
		paths = append(paths, r.URL.Path+"?Id="+r.URL.Query().Get("Id"))
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	checkNoError(t, client.DeleteDevice(context.Background(), "dev-9"))
	status, err := client.DeleteItem(context.Background(), "item-3")
	checkNoError(t, err)
	checkIntEqual(t, "status", status, http.StatusNoContent)

	checkIntEqual(t, "calls", len(paths), 2)
	checkStringEqual(t, "device", paths[0], "/emby/Devices?Id=dev-9")
	checkStringEqual(t, "item", paths[1], "/emby/Items/item-3?Id=")
}

func TestGetDevicesAndFolders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/emby/Devices":
			_, _ = w.Write([]byte(`{"Items":[{"Id":"d1","Name":"TV","AppName":"","Client":"Plex"}],"TotalRecordCount":1}`))
		case "/emby/Library/MediaFolders":
			_, _ = w.Write([]byte(`{"Items":[{"Id":"f1","Name":"Movies","CollectionType":"movies"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, Options{})

	devices, err := client.GetDevices(context.Background())
	checkNoError(t, err)
	checkIntEqual(t, "devices", len(devices), 1)
	checkStringEqual(t, "client", devices[0].ClientName(), "Plex")

	folders, err := client.GetMediaFolders(context.Background())
	checkNoError(t, err)
	checkStringEqual(t, "collection", folders[0].CollectionType, "movies")
}

func TestEndpointLabel(t *testing.T) {
	for in, want := range map[string]string{
		"Sessions":              "Sessions",
		"/Sessions/abc/Message": "Sessions",
		"Items?Limit=1":         "Items",
		"Library/MediaFolders":  "Library",
	} {
		checkStringEqual(t, in, endpointLabel(in), want)
	}
}
