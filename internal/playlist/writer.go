// SPDX-License-Identifier: MIT
package playlist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/v2m3u/internal/log"
)

const (
	filePrefix = "channels_"
	fileExt    = ".m3u8"
	// CombinedFile holds every channel of every country.
	CombinedFile = filePrefix + "all" + fileExt
)

// File is one playlist file to be written.
type File struct {
	Name string
	// Country is empty for the combined playlist.
	Country string
	Entries []RenderedEntry
}

// Files lays out the per-country playlists in country order followed by the
// combined playlist.
func Files(a Assembly) []File {
	names := FileNames(a.Countries)
	out := make([]File, 0, len(a.Countries)+1)
	for _, c := range a.Countries {
		out = append(out, File{Name: names[c], Country: c, Entries: a.PerCountry[c]})
	}
	return append(out, File{Name: CombinedFile, Entries: a.Combined})
}

// FileNames maps each country to its playlist file name,
// "channels_<Country_With_Underscores>.m3u8". Countries that sanitize to the
// same name, or to the combined file's name, get a numeric suffix in the
// order given.
func FileNames(countries []string) map[string]string {
	out := make(map[string]string, len(countries))
	used := map[string]struct{}{strings.ToLower(CombinedFile): {}}
	for _, c := range countries {
		base := filePrefix + sanitize(c)
		name := base + fileExt
		for n := 2; ; n++ {
			if _, taken := used[strings.ToLower(name)]; !taken {
				break
			}
			name = base + "_" + strconv.Itoa(n) + fileExt
		}
		used[strings.ToLower(name)] = struct{}{}
		out[c] = name
	}
	return out
}

func sanitize(country string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(country) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}

// IsPlaylistFile reports whether name looks like a generated playlist.
func IsPlaylistFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt) && filepath.Base(name) == name
}

// WriteFile writes one playlist atomically and durably.
func WriteFile(ctx context.Context, path string, guideURLs []string, entries []RenderedEntry) error {
	logger := xglog.WithComponentFromContext(ctx, "playlist")

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending playlist file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending playlist file")
		}
	}()

	if err := WriteM3U(pendingFile, guideURLs, entries); err != nil {
		return fmt.Errorf("write playlist data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace playlist file: %w", err)
	}
	return nil
}

// Written describes one playlist file on disk.
type Written struct {
	Path     string
	Country  string
	Channels int
}

// WriteAll writes every file of a into dir and removes playlists left over
// from earlier runs whose country no longer exists.
func WriteAll(ctx context.Context, dir string, guideURLs []string, a Assembly) ([]Written, error) {
	logger := xglog.WithComponentFromContext(ctx, "playlist")

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := Files(a)
	keep := make(map[string]struct{}, len(files))
	out := make([]Written, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		path := filepath.Join(dir, f.Name)
		if err := WriteFile(ctx, path, guideURLs, f.Entries); err != nil {
			return out, fmt.Errorf("%s: %w", f.Name, err)
		}
		keep[f.Name] = struct{}{}
		out = append(out, Written{Path: path, Country: f.Country, Channels: len(f.Entries)})
		logger.Debug().
			Str(xglog.FieldEvent, "playlist.write").
			Str(xglog.FieldPath, path).
			Int("channels", len(f.Entries)).
			Msg("playlist written")
	}

	removeStale(dir, keep, logger)
	return out, nil
}

func removeStale(dir string, keep map[string]struct{}, logger zerolog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !IsPlaylistFile(name) {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, name).Msg("failed to remove stale playlist")
			continue
		}
		logger.Info().
			Str(xglog.FieldEvent, "playlist.stale_removed").
			Str(xglog.FieldPath, name).
			Msg("removed stale playlist")
	}
}
