package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/geoindex"
	"github.com/cobrun/geoprefix/logging"
	"github.com/cobrun/geoprefix/prefixtree"
	"github.com/cobrun/geoprefix/spatial"
	"github.com/cobrun/geoprefix/telemetry"
	"github.com/cobrun/geoprefix/validation"
)

// Token purposes accepted by POST /v1/tokens.
const (
	PurposeIndex = "index"
	PurposeQuery = "query"
)

// GeometryRequest carries a GeoJSON geometry.
type GeometryRequest struct {
	Geometry json.RawMessage `json:"geometry" validate:"required"`
}

// TokensRequest asks for the tokens of a geometry.
type TokensRequest struct {
	Geometry json.RawMessage `json:"geometry" validate:"required"`
	Purpose  string          `json:"purpose" validate:"omitempty,oneof=index query"`
}

// NearestRequest ranks documents by distance from a GeoJSON point.
type NearestRequest struct {
	Point  json.RawMessage `json:"point" validate:"required"`
	Filter json.RawMessage `json:"filter,omitempty"`
	Limit  int             `json:"limit" validate:"gte=0,lte=10000"`
}

// CellResponse describes a grid cell.
type CellResponse struct {
	Token  string            `json:"token"`
	Level  int               `json:"level"`
	Leaf   bool              `json:"leaf"`
	Bounds spatial.Rectangle `json:"bounds"`
	Center spatial.Point     `json:"center"`
}

// TokensResponse lists index or query tokens.
type TokensResponse struct {
	Purpose string   `json:"purpose"`
	Tokens  []string `json:"tokens"`
}

// DocumentResponse identifies an indexed document.
type DocumentResponse struct {
	ID string `json:"id"`
}

// IntersectsResponse lists matching documents.
type IntersectsResponse struct {
	Documents []string `json:"documents"`
}

// NearestHit is a ranked document.
type NearestHit struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// NearestResponse lists documents by ascending distance.
type NearestResponse struct {
	Documents []NearestHit `json:"documents"`
}

// Handler serves the index API.
type Handler struct {
	index *geoindex.Index
}

// NewHandler creates a handler over index.
func NewHandler(index *geoindex.Index) *Handler {
	return &Handler{index: index}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.HTTPStatus(err) >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("request failed", "path", r.URL.Path)
	}
	errors.WriteError(w, err, telemetry.TraceID(r.Context()))
}

func decode(r *http.Request, v any) error {
	return validation.DecodeAndValidate(r, v)
}

// coordinate bounds a corner of a geometry on a geographic grid.
type coordinate struct {
	Lon float64 `json:"lon" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

func (h *Handler) parseShape(raw json.RawMessage) (spatial.Shape, error) {
	shape, err := spatial.ParseGeoJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := h.checkWorld(shape.Bounds()); err != nil {
		return nil, err
	}
	return shape, nil
}

// checkWorld rejects geometries reaching past ±180/±90 on geographic grids.
func (h *Handler) checkWorld(b spatial.Rectangle) error {
	if h.index.Strategy().Grid().WorldBounds() != prefixtree.GeoWorldBounds {
		return nil
	}
	for _, c := range []coordinate{{Lon: b.MinX, Lat: b.MinY}, {Lon: b.MaxX, Lat: b.MaxY}} {
		if err := validation.Validate(c); err != nil {
			return validation.ToAppError(err, "geometry outside the world")
		}
	}
	return nil
}

func (h *Handler) parsePoint(raw json.RawMessage) (spatial.Point, error) {
	shape, err := h.parseShape(raw)
	if err != nil {
		return spatial.Point{}, err
	}
	p, ok := shape.(spatial.Point)
	if !ok {
		return spatial.Point{}, errors.InvalidShape("point must be a GeoJSON Point, got %T", shape)
	}
	return p, nil
}

// GetCell handles GET /v1/cells/{token}.
func (h *Handler) GetCell(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	cell, err := h.index.Strategy().Grid().ParseCell(token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, CellResponse{
		Token:  cell.Token(),
		Level:  cell.Level(),
		Leaf:   cell.IsLeaf(),
		Bounds: cell.Shape(),
		Center: cell.Center(),
	})
}

// Tokens handles POST /v1/tokens.
func (h *Handler) Tokens(w http.ResponseWriter, r *http.Request) {
	var req TokensRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shape, err := h.parseShape(req.Geometry)
	if err != nil {
		writeError(w, r, err)
		return
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = PurposeIndex
	}
	var tokens []string
	if purpose == PurposeQuery {
		tokens, err = h.index.Strategy().QueryTerms(shape)
	} else {
		tokens, err = h.index.Terms(shape)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	OKWithTotal(w, TokensResponse{Purpose: purpose, Tokens: tokens}, len(tokens))
}

// PutDocument handles PUT /v1/documents/{id}.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	h.addDocument(w, r, chi.URLParam(r, "id"), OK)
}

// CreateDocument handles POST /v1/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	h.addDocument(w, r, "", Created)
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request, docID string, respond func(http.ResponseWriter, interface{})) {
	var req GeometryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shape, err := h.parseShape(req.Geometry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.index.Add(r.Context(), docID, shape)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, DocumentResponse{ID: id})
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent(w)
}

// Intersects handles POST /v1/search/intersects.
func (h *Handler) Intersects(w http.ResponseWriter, r *http.Request) {
	var req GeometryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shape, err := h.parseShape(req.Geometry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.index.Intersects(r.Context(), shape)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []string{}
	}
	OKWithTotal(w, IntersectsResponse{Documents: docs}, len(docs))
}

// Nearest handles POST /v1/search/nearest.
func (h *Handler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req NearestRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	point, err := h.parsePoint(req.Point)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var filter spatial.Shape
	if len(req.Filter) > 0 && string(req.Filter) != "null" {
		if filter, err = h.parseShape(req.Filter); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ranked, err := h.index.Nearest(r.Context(), point, filter, req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hits := make([]NearestHit, 0, len(ranked))
	for _, d := range ranked {
		hits = append(hits, NearestHit{ID: d.DocID, Distance: d.Distance})
	}
	OKWithTotal(w, NearestResponse{Documents: hits}, len(hits))
}
