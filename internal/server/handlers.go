package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/menureel/menureel/internal/httputil"
	"github.com/menureel/menureel/internal/menu"
	"github.com/menureel/menureel/internal/signedurl"
	"github.com/menureel/menureel/internal/validate"
)

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	groups, err := s.cfg.Menu.LoadGrouped(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "failed to load menu")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

func (s *Server) handleMenuItems(w http.ResponseWriter, r *http.Request) {
	m, err := s.cfg.Menu.Load(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "failed to load menu")
		return
	}
	items := m.Items
	if items == nil {
		items = []menu.MenuItem{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

type refreshRequest struct {
	Path string `json:"path"`
}

type refreshResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleRefreshVideo(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	path := strings.TrimSpace(req.Path)
	if msg := validate.VideoPath(path); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if !menu.IsVideoPath(path) {
		httputil.WriteError(w, http.StatusBadRequest, "path is not a video file")
		return
	}

	onMenu, err := s.cfg.Menu.HasVideo(r.Context(), path)
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "failed to load menu")
		return
	}
	if !onMenu {
		s.logger.Warn("refresh: path not on menu", "path", path)
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	entry, err := s.cfg.URLs.Refresh(r.Context(), path)
	if err != nil {
		var signErr *signedurl.SigningFailedError
		if errors.As(err, &signErr) {
			httputil.WriteError(w, http.StatusBadGateway, "failed to sign video url")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to refresh video url")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, refreshResponse{URL: entry.URL, ExpiresAt: entry.ExpiresAt})
}
