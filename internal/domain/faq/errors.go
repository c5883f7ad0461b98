package faq

import "errors"

var (
	// ErrIndexCorrupt marks a structurally invalid catalog. Loading must abort.
	ErrIndexCorrupt = errors.New("faq index corrupt")
	// ErrArtifactMissing marks an absent or partial artifact. The service stays unready.
	ErrArtifactMissing = errors.New("faq artifact missing")
	// ErrUnready is returned by operations that need a loaded snapshot.
	ErrUnready = errors.New("faq catalog not ready")
)

// Error codes surfaced through apperrors.
const (
	CodeEmptyInput     = "empty_input"
	CodeUnready        = "catalog_unready"
	CodeRepresenter    = "representer_error"
	CodeReloadFailed   = "reload_failed"
	CodeReloadDisabled = "reload_disabled"
	CodeStoreFailed    = "faq_error"
)
