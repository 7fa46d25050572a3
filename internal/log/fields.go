// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"

	// Domain fields
	FieldOrigin  = "origin"
	FieldCountry = "country"
	FieldChannel = "channel"
	FieldGuide   = "guide_url"
	FieldPolicy  = "dedup_policy"

	// Path / URL fields
	FieldPath      = "path"
	FieldURL       = "url"
	FieldOutputDir = "output_dir"
)
