// SPDX-License-Identifier: MIT

// Command v2m3u builds per-country M3U playlists from provider channel
// listings, once or on a schedule behind a small HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
