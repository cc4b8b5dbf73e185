package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/havenrise/internal/property"
	"github.com/evcraddock/havenrise/internal/search"
	"github.com/evcraddock/havenrise/internal/transfer"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// loadCatalog returns the catalog, or writes 503 if it failed to load.
func (s *Server) loadCatalog(w http.ResponseWriter, r *http.Request) (*property.Catalog, bool) {
	c, err := s.catalog.Catalog(r.Context())
	if err != nil {
		apiError(w, err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}
	return c, true
}

// formFromQuery reads the search form from query parameters.
func formFromQuery(r *http.Request) search.Form {
	q := r.URL.Query()
	return search.Form{
		Type:        q.Get("type"),
		MinPrice:    q.Get("min_price"),
		MaxPrice:    q.Get("max_price"),
		MinBedrooms: q.Get("min_bedrooms"),
		MaxBedrooms: q.Get("max_bedrooms"),
		DateFrom:    q.Get("added_after"),
		DateTo:      q.Get("added_before"),
		Postcode:    q.Get("postcode"),
		SearchTerm:  q.Get("q"),
	}
}

// apiSearchProperties filters the catalog by the query parameters.
func (s *Server) apiSearchProperties(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	results := search.Search(c.All(), formFromQuery(r))
	if s.metrics != nil {
		s.metrics.SearchEvaluated(len(results))
	}

	apiJSON(w, map[string]interface{}{
		"count":         len(results),
		"properties":    results,
		"favourite_ids": s.favourites.IDs(),
	}, http.StatusOK)
}

// apiGetProperty returns one property with its display extras.
func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	p, err := c.Get(chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}

	type response struct {
		Property  property.Property `json:"property"`
		Gallery   []string          `json:"gallery"`
		MapURL    string            `json:"map_url"`
		AddedOn   string            `json:"added_on,omitempty"`
		Favourite bool              `json:"favourite"`
	}
	resp := response{
		Property:  p,
		Gallery:   p.Gallery(),
		MapURL:    p.MapURL(),
		Favourite: s.favourites.Contains(p.ID),
	}
	if added, ok := p.AddedOn(); ok {
		resp.AddedOn = added.Format(property.DateLayout)
	}

	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) favouritesResponse(extra map[string]interface{}) map[string]interface{} {
	list := s.favourites.List()
	resp := map[string]interface{}{
		"count":      len(list),
		"favourites": list,
	}
	for k, v := range extra {
		resp[k] = v
	}
	return resp
}

// apiListFavourites returns the favourites in insertion order.
func (s *Server) apiListFavourites(w http.ResponseWriter, _ *http.Request) {
	apiJSON(w, s.favouritesResponse(nil), http.StatusOK)
}

// apiAddFavourite adds a catalog property by id.
func (s *Server) apiAddFavourite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		apiError(w, "id is required", http.StatusBadRequest)
		return
	}

	c, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}
	p, err := c.Get(id)
	if err != nil {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}

	added, err := s.favourites.Add(r.Context(), p)
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	apiJSON(w, s.favouritesResponse(map[string]interface{}{
		"added":     added,
		"persisted": err == nil,
	}), code)
}

// apiRemoveFavourite removes a favourite by id. Unknown ids are a no-op.
func (s *Server) apiRemoveFavourite(w http.ResponseWriter, r *http.Request) {
	removed, err := s.favourites.Remove(r.Context(), chi.URLParam(r, "id"))
	apiJSON(w, s.favouritesResponse(map[string]interface{}{
		"removed":   removed,
		"persisted": err == nil,
	}), http.StatusOK)
}

// apiClearFavourites empties the favourites.
func (s *Server) apiClearFavourites(w http.ResponseWriter, r *http.Request) {
	err := s.favourites.Clear(r.Context())
	apiJSON(w, s.favouritesResponse(map[string]interface{}{
		"cleared":   true,
		"persisted": err == nil,
	}), http.StatusOK)
}

// apiTransferStart writes the drag payload for an add or remove intent.
func (s *Server) apiTransferStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Intent string `json:"intent"`
		ID     string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	kind, err := transfer.ParseKind(req.Intent)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, found := s.findForTransfer(r, kind, req.ID)
	if !found {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}

	dt := transfer.Payload{}
	switch kind {
	case transfer.AddRequest:
		err = s.transfer.StartAdd(dt, p)
	case transfer.RemoveRequest:
		err = s.transfer.StartRemove(dt, p)
	}
	if errors.Is(err, transfer.ErrAlreadyFavourite) {
		apiJSON(w, map[string]interface{}{
			"error":    err.Error(),
			"advisory": true,
		}, http.StatusConflict)
		return
	}
	if err != nil {
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"data": dt}, http.StatusOK)
}

// findForTransfer resolves the dragged property. A remove drag starts from
// the favourites view, so only favourites qualify; an add drag comes from
// the catalog.
func (s *Server) findForTransfer(r *http.Request, kind transfer.Kind, id string) (property.Property, bool) {
	if kind == transfer.RemoveRequest {
		for _, p := range s.favourites.List() {
			if p.ID == id {
				return p, true
			}
		}
		return property.Property{}, false
	}
	c, err := s.catalog.Catalog(r.Context())
	if err != nil {
		return property.Property{}, false
	}
	p, err := c.Get(id)
	return p, err == nil
}

// apiTransferDrop applies a drop. The drop is always accepted; a missing or
// malformed payload does nothing.
func (s *Server) apiTransferDrop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data transfer.Payload `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug("unreadable drop body", "error", err)
	}
	if req.Data == nil {
		req.Data = transfer.Payload{}
	}

	var out transfer.Outcome
	switch chi.URLParam(r, "target") {
	case "favourites":
		out = s.transfer.DropOnFavourites(r.Context(), req.Data)
	case "listing":
		out = s.transfer.DropOnListing(r.Context(), req.Data)
	default:
		apiError(w, "unknown drop target", http.StatusNotFound)
		return
	}

	apiJSON(w, s.favouritesResponse(map[string]interface{}{
		"accepted":  true,
		"applied":   out.Applied,
		"result":    out.Result(),
		"persisted": out.Err == nil,
	}), http.StatusOK)
}
