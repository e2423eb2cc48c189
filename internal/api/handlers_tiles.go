// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/engine"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/tiles"
)

// Tile response headers.
const (
	TileVersionHeader = "X-Tile-Version"
	TileCacheHeader   = "X-Tile-Cache"
)

// activeMetricAlias resolves to the display metric at request time.
const activeMetricAlias = "active"

// TilePNG serves one tile of one metric layer.
func (rt *Router) TilePNG(w http.ResponseWriter, r *http.Request) {
	m, err := rt.resolveMetric(chi.URLParam(r, "metric"))
	if err != nil {
		NewResponseWriter(w, r).BadRequest(ErrCodeUnknownMetric, err.Error())
		return
	}
	addr, err := parseTileAddress(r)
	if err != nil {
		NewResponseWriter(w, r).BadRequest(ErrCodeBadRequest, err.Error())
		return
	}

	tile, err := rt.session.Tile(r.Context(), addr, m)
	switch {
	case err == nil:
	case errors.Is(err, tiles.ErrNoTile):
		w.Header().Set("Cache-Control", rt.cacheControl())
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, tiles.ErrInvalidTile), errors.Is(err, canvas.ErrUnknownMetric):
		NewResponseWriter(w, r).BadRequest(ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, engine.ErrClosed):
		NewResponseWriter(w, r).ServiceUnavailable("Engine is shutting down", nil)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Debug().Str("tile", addr.String()).Msg("Tile request abandoned")
		return
	default:
		NewResponseWriter(w, r).InternalError("Failed to render tile", err)
		return
	}

	cacheState := "miss"
	if tile.Cached {
		cacheState = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(tile.PNG)))
	h.Set("Cache-Control", rt.cacheControl())
	h.Set(TileVersionHeader, strconv.FormatUint(tile.Version, 10))
	h.Set(TileCacheHeader, cacheState)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(tile.PNG); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Tile write failed")
	}
}

func (rt *Router) cacheControl() string {
	return fmt.Sprintf("public, max-age=%d", int(rt.tileMaxAge.Seconds()))
}

func (rt *Router) resolveMetric(name string) (canvas.Metric, error) {
	if name == activeMetricAlias {
		return rt.session.ActiveMetric(), nil
	}
	return canvas.ParseMetric(name)
}

func parseTileAddress(r *http.Request) (geo.TileAddress, error) {
	var coords [3]int
	for i, name := range [...]string{"z", "x", "y"} {
		v, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			return geo.TileAddress{}, fmt.Errorf("tile %s must be an integer", name)
		}
		coords[i] = v
	}
	addr := geo.TileAddress{Zoom: coords[0], X: coords[1], Y: coords[2]}
	if !addr.Valid() {
		return geo.TileAddress{}, fmt.Errorf("%w: %s", tiles.ErrInvalidTile, addr)
	}
	return addr, nil
}
