package metrics

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

var statusPage = template.Must(template.New("status").Parse(`<html><body>
<h1>Vector Space Search: {{.Service}}</h1>
{{if .Ready}}<table>
<tr><td>documents</td><td>{{.Size.Documents}}</td></tr>
<tr><td>terms</td><td>{{.Size.Terms}}</td></tr>
<tr><td>postings</td><td>{{.Size.Postings}}</td></tr>
<tr><td>updated</td><td>{{.Size.UpdatedAt.Format "2006-01-02T15:04:05Z07:00"}}</td></tr>
</table>{{else}}<p>no index loaded</p>{{end}}
<p><a href="/metrics">/metrics</a></p>
</body></html>`))

// Mux serves the scrape endpoint on /metrics and a status page with the
// current index size on /.
func (m *Metrics) Mux(service string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		size, ready := m.IndexSize()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := statusPage.Execute(w, struct {
			Service string
			Ready   bool
			Size    IndexSize
		}{service, ready, size})
		if err != nil {
			slog.Error("rendering metrics status page", "error", err)
		}
	})
	return mux
}

// StartServer serves Mux on port in the background and returns its
// shutdown function.
func (m *Metrics) StartServer(port int, service string) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      m.Mux(service),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr, "service", service)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
