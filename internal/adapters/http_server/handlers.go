// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"mboa_homes/internal/adapters/observability"
	"mboa_homes/internal/app"
	"mboa_homes/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	E *app.EngagementService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/listings", h.searchListings)
	s.mux.Get("/v1/listings/{id}", h.getListing)
	s.mux.Get("/v1/recommendations", h.recommendations)
	s.mux.Post("/v1/listings/{id}/views", h.recordView)
	s.mux.Put("/v1/users/{userID}/favorites/{listingID}", h.addFavorite)
	s.mux.Delete("/v1/users/{userID}/favorites/{listingID}", h.removeFavorite)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

type listingResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	City          string     `json:"city"`
	Neighborhood  *string    `json:"neighborhood,omitempty"`
	Price         float64    `json:"price"`
	PriceUnit     string     `json:"price_unit"`
	Bedrooms      int        `json:"bedrooms"`
	Bathrooms     int        `json:"bathrooms"`
	Area          float64    `json:"area"`
	PropertyType  string     `json:"property_type"`
	ListingType   string     `json:"listing_type"`
	Amenities     []string   `json:"amenities,omitempty"`
	Images        []string   `json:"images,omitempty"`
	IsVerified    bool       `json:"is_verified"`
	IsAvailable   bool       `json:"is_available"`
	ViewCount     int64      `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:            l.ID,
		Title:         l.Title,
		City:          l.City,
		Neighborhood:  l.Neighborhood,
		Price:         l.Price,
		PriceUnit:     l.PriceUnit,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		Area:          l.Area,
		PropertyType:  l.PropertyType,
		ListingType:   l.ListingType,
		Amenities:     l.Amenities,
		Images:        l.Images,
		IsVerified:    l.IsVerified,
		IsAvailable:   l.IsAvailable,
		ViewCount:     l.ViewCount,
		CreatedAt:     l.CreatedAt,
		AvailableFrom: l.AvailableFrom,
	}
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	l, err := h.Q.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeJSONWithETag(w, r, toListingResponse(l))
}

type listingsPageResponse struct {
	Items      []listingResponse `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

func (h *Handlers) searchListings(w http.ResponseWriter, r *http.Request) {
	q := domain.ListingsQuery{Limit: 20}
	qs := r.URL.Query()
	if v := qs.Get("city"); v != "" {
		q.City = &v
	}
	if v := qs.Get("property_type"); v != "" {
		q.PropertyType = &v
	}
	if v := qs.Get("listing_type"); v != "" {
		q.ListingType = &v
	}
	if v := qs.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid min_price", "min_price must be a non-negative number")
			return
		}
		q.MinPrice = &f
	}
	if v := qs.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid max_price", "max_price must be a non-negative number")
			return
		}
		q.MaxPrice = &f
	}
	if v := qs.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		q.Limit = l
	}
	if v := qs.Get("cursor"); v != "" {
		q.Cursor = &v
	}

	page, err := h.Q.SearchListings(r.Context(), q)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			writeProblem(w, http.StatusBadRequest, "Invalid cursor", "cursor is not valid")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := listingsPageResponse{Items: make([]listingResponse, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, l := range page.Items {
		out.Items = append(out.Items, toListingResponse(l))
	}
	writeJSONWithETag(w, r, out)
}

type recommendationResponse struct {
	Listing listingResponse `json:"listing"`
	Score   float64         `json:"score"`
	Reasons []string        `json:"reasons,omitempty"`
}

type recommendationsPageResponse struct {
	Items []recommendationResponse `json:"items"`
}

func (h *Handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	limit := 10
	if v := qs.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > 50 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 50")
			return
		}
		limit = l
	}

	var userID *int64
	if v := qs.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid user_id", "user_id must be a positive number")
			return
		}
		userID = &id
	}

	recs, err := h.Q.Recommend(r.Context(), userID, limit)
	if err != nil {
		observability.ObserveReco("error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if len(recs) == 0 {
		observability.ObserveReco("empty")
	} else {
		observability.ObserveReco("ok")
	}

	out := recommendationsPageResponse{Items: make([]recommendationResponse, 0, len(recs))}
	for _, s := range recs {
		out.Items = append(out.Items, recommendationResponse{
			Listing: toListingResponse(s.Listing),
			Score:   s.Score,
			Reasons: s.Reasons,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Error().Err(err).Msg("failed to write recommendations body")
	}
}

type viewRequest struct {
	UserID   *int64 `json:"user_id,omitempty"`
	Duration int    `json:"duration_seconds"`
}

func (h *Handlers) recordView(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
		return
	}
	if req.Duration < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid duration", "duration_seconds must be non-negative")
		return
	}

	ev := domain.ViewEvent{PropertyID: id, UserID: req.UserID, Duration: req.Duration, ViewedAt: time.Now().UTC()}
	if err := h.E.RecordView(r.Context(), ev); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func favoriteParams(r *http.Request) (userID, listingID int64, err error) {
	userID, err = strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, errors.New("userID must be a positive number")
	}
	listingID, err = strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil || listingID <= 0 {
		return 0, 0, errors.New("listingID must be a positive number")
	}
	return userID, listingID, nil
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, listingID, err := favoriteParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.E.AddFavorite(r.Context(), userID, listingID); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, listingID, err := favoriteParams(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	if err := h.E.RemoveFavorite(r.Context(), userID, listingID); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
