// Package docs serves the OpenAPI description of the HTTP API and a
// reference page rendered from it.
package docs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var specYAML []byte

// MountPath is where the server mounts Routes.
const MountPath = "/api/docs"

const scalarCDN = "https://cdn.jsdelivr.net"

var pageCSP = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' " + scalarCDN + " 'unsafe-inline'",
	"style-src 'self' " + scalarCDN + " 'unsafe-inline'",
	"font-src 'self' " + scalarCDN + " data:",
	"img-src 'self' data:",
	"connect-src 'self'",
	"frame-ancestors 'none'",
}, "; ")

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head>
  <title>{{.Title}}</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" data-url="{{.SpecURL}}"></script>
  <script src="{{.CDN}}/npm/@scalar/api-reference"></script>
</body></html>`))

type Handler struct {
	page []byte
	etag string
}

// New renders the reference page once. title is shown in the browser tab.
func New(title string) *Handler {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct{ Title, SpecURL, CDN string }{
		Title:   title,
		SpecURL: MountPath + "/openapi.yaml",
		CDN:     scalarCDN,
	})
	if err != nil {
		panic("docs: render page: " + err.Error())
	}
	sum := sha256.Sum256(specYAML)
	return &Handler{
		page: buf.Bytes(),
		etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
}

// Routes serves the page at the mount root and the document at
// /openapi.yaml.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handlePage)
	r.Get("/openapi.yaml", h.handleSpec)
	return r
}

// handleSpec serves the embedded document with a strong ETag; it only
// changes with a new build.
func (h *Handler) handleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(specYAML)
}

// handlePage replaces the API's default content security policy, since the
// reference UI loads its scripts from a CDN.
func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", pageCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(h.page)
}
