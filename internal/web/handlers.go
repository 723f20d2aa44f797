package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/storagetracker/internal/auth"
	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

type healthResponse struct {
	Status  string             `json:"status"`
	Store   string             `json:"store"`
	Imports core.LimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "ok", Imports: s.svc.Limiter().Status()}
	status := http.StatusOK
	if err := s.svc.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health: store ping failed", "error", err)
		resp.Status, resp.Store = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), logging.UserIDFromContext(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, auth.ErrInvalidSession, http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Locations
// ----------------------------------------------------------------------------

type locationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type locationDetail struct {
	core.Location
	Items []core.ItemView `json:"items"`
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.inventory(r).ListLocations(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, locs)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	inv := s.inventory(r)
	id := chi.URLParam(r, "id")

	loc, err := inv.GetLocation(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	items, err := inv.ItemsAt(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, locationDetail{Location: loc, Items: items})
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	loc, err := s.inventory(r).CreateLocation(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("location created", "location_id", loc.ID)
	writeJSON(w, r, http.StatusCreated, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	loc, err := s.inventory(r).UpdateLocation(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.inventory(r).DeleteLocation(r.Context(), id); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("location deleted", "location_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------------
// Items
// ----------------------------------------------------------------------------

// itemRequest is the writable part of an item. Omitted fields are stored
// empty, so an update is a full overwrite.
type itemRequest struct {
	LocationID       string `json:"location_id"`
	Name             string `json:"name"`
	Brand            string `json:"brand"`
	Manufacturer     string `json:"manufacturer"`
	Size             string `json:"size"`
	Quantity         string `json:"quantity"`
	Units            string `json:"units"`
	ServingsPerUnit  string `json:"servings_per_unit"`
	NutritionalInfo  string `json:"nutritional_info"`
	Ingredients      string `json:"ingredients"`
	DatePurchased    string `json:"date_purchased"`
	ManufacturedDate string `json:"manufactured_date"`
	ExpirationDate   string `json:"expiration_date"`
	UPC              string `json:"upc"`
	OtherInfo        string `json:"other_info"`
	Box              *int   `json:"box"`
}

func (req itemRequest) item() core.Item {
	return core.Item{
		LocationID:       req.LocationID,
		Name:             req.Name,
		Brand:            req.Brand,
		Manufacturer:     req.Manufacturer,
		Size:             req.Size,
		Quantity:         req.Quantity,
		Units:            req.Units,
		ServingsPerUnit:  req.ServingsPerUnit,
		NutritionalInfo:  req.NutritionalInfo,
		Ingredients:      req.Ingredients,
		DatePurchased:    req.DatePurchased,
		ManufacturedDate: req.ManufacturedDate,
		ExpirationDate:   req.ExpirationDate,
		UPC:              req.UPC,
		OtherInfo:        req.OtherInfo,
		Box:              req.Box,
	}
}

// itemWriteStatus reports an unknown location on a write as a bad request:
// the item itself was addressed correctly.
func itemWriteStatus(err error) int {
	if errors.Is(err, core.ErrLocationNotFound) {
		return http.StatusBadRequest
	}
	return 0
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.inventory(r).ListItems(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.inventory(r).GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	item, err := s.inventory(r).CreateItem(r.Context(), req.item())
	if err != nil {
		s.respondError(w, r, err, itemWriteStatus(err))
		return
	}
	logging.FromContext(r.Context()).Info("item created", "item_id", item.ID)
	writeJSON(w, r, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	item, err := s.inventory(r).UpdateItem(r.Context(), chi.URLParam(r, "id"), req.item())
	if err != nil {
		s.respondError(w, r, err, itemWriteStatus(err))
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.inventory(r).DeleteItem(r.Context(), id); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.FromContext(r.Context()).Info("item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}
