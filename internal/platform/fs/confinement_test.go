// SPDX-License-Identifier: MIT

package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "channels_all.m3u8"), []byte("#EXTM3U"), 0o600))
	require.NoError(t, os.Symlink("..", filepath.Join(root, "link_outside")))

	tests := []struct {
		name     string
		target   string
		wantErr  bool
		wantPath string
	}{
		{"existing file", "channels_all.m3u8", false, "channels_all.m3u8"},
		{"missing file in subdir", "subdir/foo.m3u8", false, filepath.Join("subdir", "foo.m3u8")},
		{"dotdot", "../outside.m3u8", true, ""},
		{"absolute", "/etc/passwd", true, ""},
		{"backslash", `..\secret`, true, ""},
		{"symlink escape", "link_outside/foo", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(root, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(got, tt.wantPath), "got %s", got)
		})
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.m3u8")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	assert.NoError(t, IsRegularFile(file))
	assert.Error(t, IsRegularFile(dir))
	assert.Error(t, IsRegularFile(filepath.Join(dir, "missing")))
}
