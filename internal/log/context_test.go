// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextIDs(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithRequestID(ctx, "req-1")

	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Empty(t, RunIDFromContext(nil))
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRunID(context.Background(), "run-42")
	l := WithContext(ctx, base)
	l.Info().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-42", entry[FieldRunID])
	assert.NotContains(t, entry, FieldRequestID)
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, FieldRunID)
}
