package handler

import (
	"net/http"

	"github.com/sevigo/repodigest/internal/core"
)

// StatusForError maps a pipeline error to the HTTP status and wire "kind" string from §6's
// edge interface table. Unrecognized errors (not a *core.Error) map to 500.
func StatusForError(err error) (int, string) {
	kind, ok := core.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, ""
	}
	switch kind {
	case core.KindInvalidURL, core.KindInvalidRequestBody:
		return http.StatusBadRequest, string(kind)
	case core.KindInaccessible:
		return http.StatusNotFound, string(kind)
	case core.KindParse, core.KindBudget:
		return http.StatusUnprocessableEntity, string(kind)
	case core.KindRateLimited:
		return http.StatusTooManyRequests, string(kind)
	case core.KindShape, core.KindOutputValidation:
		return http.StatusBadGateway, string(kind)
	case core.KindUpstream:
		return http.StatusServiceUnavailable, string(kind)
	case core.KindTimeout:
		return http.StatusGatewayTimeout, string(kind)
	case core.KindConfig:
		return http.StatusInternalServerError, string(kind)
	default:
		return http.StatusInternalServerError, string(kind)
	}
}

// messageForKind maps a wire kind string to the clean, user-facing message §6/§7 require —
// never the error's own Error() string, which embeds the internal Kind tag and upstream
// status code (e.g. "upstream: gateway unavailable (status 503)").
func messageForKind(kind string) string {
	switch core.ErrorKind(kind) {
	case core.KindInvalidURL:
		return "Invalid GitHub URL."
	case core.KindInvalidRequestBody:
		return "Invalid request body."
	case core.KindInaccessible:
		return "Repository is inaccessible or was not found."
	case core.KindParse:
		return "Failed to parse the repository digest."
	case core.KindBudget:
		return "Repository digest exceeded the configured token budget."
	case core.KindRateLimited:
		return "Rate limited by the upstream service."
	case core.KindShape:
		return "Upstream response had an unexpected shape."
	case core.KindOutputValidation:
		return "LLM output failed schema validation."
	case core.KindUpstream:
		return "Upstream service error."
	case core.KindTimeout:
		return "Request timed out."
	case core.KindConfig:
		return "Internal configuration error."
	default:
		return "Internal server error."
	}
}
