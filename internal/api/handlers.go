// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/v2m3u/internal/jobs"
	xglog "github.com/ManuGH/v2m3u/internal/log"
	platformfs "github.com/ManuGH/v2m3u/internal/platform/fs"
	"github.com/ManuGH/v2m3u/internal/playlist"
)

const playlistContentType = "audio/x-mpegurl"

type statusResponse struct {
	Version string       `json:"version,omitempty"`
	Uptime  string       `json:"uptime"`
	Running bool         `json:"running"`
	Last    *jobs.Status `json:"last"`
}

type playlistInfo struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Country  string    `json:"country,omitempty"`
	Channels int       `json:"channels"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Version: s.deps.Version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	}
	if s.deps.Refresher != nil {
		resp.Running = s.deps.Refresher.Running()
		resp.Last = s.deps.Refresher.Last()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")
	if s.deps.Refresher == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "refresh_unavailable"})
		return
	}
	if !s.deps.Refresher.Trigger() {
		writeJSON(w, http.StatusConflict, errorBody{Error: "refresh_pending", Detail: "A refresh is already queued."})
		return
	}
	logger.Info().Str(xglog.FieldEvent, "api.refresh_triggered").Msg("manual refresh queued")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")
	dir := s.deps.Config().OutputDir

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusOK, []playlistInfo{})
			return
		}
		logger.Error().Err(err).Str(xglog.FieldEvent, "api.list_failed").Str(xglog.FieldOutputDir, dir).Msg("cannot read output dir")
		writeInternal(w)
		return
	}

	out := make([]playlistInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !playlist.IsPlaylistFile(de.Name()) {
			continue
		}
		info, err := describePlaylist(filepath.Join(dir, de.Name()))
		if err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "api.playlist_unreadable").Str(xglog.FieldPath, de.Name()).Msg("skipping unreadable playlist")
			continue
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b playlistInfo) int { return strings.Compare(a.Name, b.Name) })
	writeJSON(w, http.StatusOK, out)
}

func describePlaylist(path string) (playlistInfo, error) {
	// #nosec G304 -- path is a directory entry of the configured output dir
	f, err := os.Open(path)
	if err != nil {
		return playlistInfo{}, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return playlistInfo{}, err
	}
	parsed, err := playlist.Parse(f)
	if err != nil {
		return playlistInfo{}, err
	}

	name := filepath.Base(path)
	info := playlistInfo{
		Name:     name,
		URL:      "/playlists/" + name,
		Channels: len(parsed.Entries),
		Size:     st.Size(),
		Modified: st.ModTime().UTC(),
	}
	if name != playlist.CombinedFile && len(parsed.Entries) > 0 {
		info.Country = parsed.Entries[0].Country
	}
	return info, nil
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")
	name := chi.URLParam(r, "file")
	dir := s.deps.Config().OutputDir

	deny := func(reason string) {
		logger.Warn().
			Str(xglog.FieldEvent, "file_req.denied").
			Str(xglog.FieldPath, name).
			Str("reason", reason).
			Msg("playlist request denied")
	}

	if !playlist.IsPlaylistFile(name) || strings.ContainsAny(name, `/\`) {
		deny("not_a_playlist")
		writeNotFound(w)
		return
	}

	path, err := platformfs.ConfineRelPath(dir, name)
	if err != nil {
		if errors.Is(err, platformfs.ErrEscapesRoot) {
			deny("path_escape")
			writeForbidden(w)
			return
		}
		writeNotFound(w)
		return
	}
	if err := platformfs.IsRegularFile(path); err != nil {
		writeNotFound(w)
		return
	}

	// #nosec G304 -- path is confined to the output dir above
	f, err := os.Open(path)
	if err != nil {
		writeNotFound(w)
		return
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		writeInternal(w)
		return
	}

	w.Header().Set("Content-Type", playlistContentType)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, st.ModTime(), f)
}
