package api

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openAPISpec []byte

// DocsRouter serves the OpenAPI document and a Swagger UI page that points
// at it, rewriting the document's host/scheme from the inbound request so
// the "Try it out" button works behind a reverse proxy via
// X-Forwarded-Proto/X-Forwarded-Host.
type DocsRouter struct {
	spec []byte
}

// NewDocsRouter creates a DocsRouter serving the embedded OpenAPI spec.
func NewDocsRouter() *DocsRouter {
	return &DocsRouter{spec: openAPISpec}
}

// Routes returns the chi router mounting the docs UI at "/" and the raw spec
// at "/openapi.json".
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.serveUI)
	router.Get("/openapi.json", d.serveSpec)
	return router
}

func (d *DocsRouter) serveUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerUIHTML("./openapi.json")))
}

func (d *DocsRouter) serveSpec(w http.ResponseWriter, r *http.Request) {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	spec := strings.Replace(string(d.spec), `"url": "//localhost:8080/api/v1"`, `"url": "`+scheme+"://"+host+`/api/v1"`, 1)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(spec))
}

func swaggerUIHTML(specURL string) string {
	return `<!DOCTYPE html>
<html>
<head>
  <title>codesense API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "` + specURL + `",
        dom_id: "#swagger-ui",
        presets: [SwaggerUIBundle.presets.apis],
      });
    };
  </script>
</body>
</html>`
}
