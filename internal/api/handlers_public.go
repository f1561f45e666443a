// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/waypoint/internal/ingest"
	"github.com/tomtom215/waypoint/internal/logging"
	"github.com/tomtom215/waypoint/internal/metrics"
	"github.com/tomtom215/waypoint/internal/shortlink"
	"github.com/tomtom215/waypoint/internal/validation"
)

// TrackingPage serves the interstitial for an active slug.
//
// Unknown and inactive slugs get a plain 404 so nothing about the link leaks.
func (h *Handler) TrackingPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if _, err := h.links.Resolve(r.Context(), slug); err != nil {
		if errors.Is(err, shortlink.ErrNotFound) {
			http.Error(w, "Link not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", slug).Msg("Failed to resolve shortlink")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := h.page.Render(slug, cspNonce(r.Context()))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render tracking page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

// ShortlinkMeta returns {targetUrl, shortlinkId} for an active slug.
func (h *Handler) ShortlinkMeta(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	meta, err := h.links.Resolve(r.Context(), slug)
	if err != nil {
		if errors.Is(err, shortlink.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageBody{Message: "Not found"})
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", slug).Msg("Failed to resolve shortlink")
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Track ingests one tracking submission.
//
// 400 for undecodable, invalid, or unknown-shortlink payloads; 500 when
// storage fails. Nothing is persisted on either path.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxPayloadBytes)

	event, err := ingest.Decode(r.Body)
	if err != nil {
		metrics.RecordClickRejected("malformed")
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected malformed tracking payload")
		writeJSON(w, http.StatusBadRequest, messageBody{Message: "Invalid tracking payload"})
		return
	}

	if _, err := h.ingest.Ingest(r.Context(), event, ingest.ConnectionInfoFromRequest(r)); err != nil {
		var verr *validation.RequestValidationError
		switch {
		case errors.As(err, &verr):
			apiErr := verr.ToAPIError()
			writeJSON(w, http.StatusBadRequest, messageBody{Message: apiErr.Message, Details: apiErr.Details})
		case errors.Is(err, ingest.ErrUnknownShortlink):
			writeJSON(w, http.StatusBadRequest, messageBody{Message: "Unknown shortlink"})
		default:
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to record click event")
			writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Failed to record click"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, successBody{Success: true})
}
