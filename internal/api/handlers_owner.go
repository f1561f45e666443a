// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/auth"
	"github.com/tomtom215/waypoint/internal/models"
	"github.com/tomtom215/waypoint/internal/shortlink"
	"github.com/tomtom215/waypoint/internal/validation"
)

// maxRequestBody caps owner API request bodies
const maxRequestBody = 16 * 1024

// ShortlinkView is a shortlink with its public URL.
type ShortlinkView struct {
	models.Shortlink
	ShortURL string `json:"shortUrl"`
}

func (h *Handler) view(link *models.Shortlink) ShortlinkView {
	return ShortlinkView{Shortlink: *link, ShortURL: h.links.ShortURL(link.Slug)}
}

// CreateShortlink handles POST /api/shortlinks.
func (h *Handler) CreateShortlink(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req models.CreateShortlinkRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	link, err := h.links.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, shortlink.ErrSlugSpaceExhausted) {
			rw.ServiceUnavailable("Could not allocate a slug, try again")
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Created(h.view(link))
}

// ListShortlinks handles GET /api/shortlinks.
func (h *Handler) ListShortlinks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	links, err := h.links.List(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	views := make([]ShortlinkView, 0, len(links))
	for i := range links {
		views = append(views, h.view(&links[i]))
	}
	rw.SuccessWithPagination(views, &PaginationMeta{Count: len(views)})
}

// UpdateShortlink handles PATCH /api/shortlinks/{id}.
func (h *Handler) UpdateShortlink(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	id, ok := parseID(rw, r)
	if !ok {
		return
	}

	var req models.UpdateShortlinkRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	link, err := h.links.SetActive(r.Context(), id, userID, *req.IsActive)
	if err != nil {
		h.ownedError(rw, err)
		return
	}
	rw.Success(h.view(link))
}

// ShortlinkClicks handles GET /api/shortlinks/{id}/clicks.
func (h *Handler) ShortlinkClicks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	id, ok := parseID(rw, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}

	clicks, err := h.links.Clicks(r.Context(), id, userID, limit)
	if err != nil {
		h.ownedError(rw, err)
		return
	}
	rw.SuccessWithPagination(clicks, pagination(len(clicks), limit))
}

// UserClicks handles GET /api/clicks.
func (h *Handler) UserClicks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}

	clicks, err := h.links.UserClicks(r.Context(), userID, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithPagination(clicks, pagination(len(clicks), limit))
}

// ShortlinkQR handles GET /api/shortlinks/{id}/qr and writes a PNG.
func (h *Handler) ShortlinkQR(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	id, ok := parseID(rw, r)
	if !ok {
		return
	}

	size := shortlink.DefaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < shortlink.MinQRSize || n > shortlink.MaxQRSize {
			rw.BadRequest("size must be an integer between " +
				strconv.Itoa(shortlink.MinQRSize) + " and " + strconv.Itoa(shortlink.MaxQRSize))
			return
		}
		size = n
	}

	png, err := h.links.QRCode(r.Context(), id, userID, size)
	if err != nil {
		h.ownedError(rw, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png) //nolint:errcheck // client disconnects are not actionable
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	stats, err := h.links.Stats(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}

// ownedError maps errors of owner-scoped lookups. Shortlinks owned by someone
// else are indistinguishable from missing ones.
func (h *Handler) ownedError(rw *ResponseWriter, err error) {
	if errors.Is(err, shortlink.ErrNotFound) {
		rw.NotFound("Shortlink not found")
		return
	}
	rw.DatabaseError(err)
}

func decodeBody(rw *ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(rw.w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		rw.BadRequest("Invalid JSON request body")
		return false
	}
	return true
}

func parseID(rw *ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest("id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseLimit(rw *ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		rw.BadRequest("limit must be an integer between 1 and " + strconv.Itoa(maxListLimit))
		return 0, false
	}
	return n, true
}

func pagination(count, limit int) *PaginationMeta {
	return &PaginationMeta{Count: count, Limit: limit, HasMore: count == limit}
}
