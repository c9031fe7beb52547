package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	lerrors "github.com/lumen-press/lumen/internal/errors"
)

// liveReloadScript reconnects after the server restarts and reloads the page
// whenever a rebuild finishes.
const liveReloadScript = `(function(){` +
	`var p=location.protocol==="https:"?"wss:":"ws:";` +
	`function connect(){` +
	`var ws=new WebSocket(p+"//"+location.host+"` + ReloadPath + `");` +
	`ws.onmessage=function(e){try{if(JSON.parse(e.data).type==="reload")location.reload()}catch(_){}};` +
	`ws.onclose=function(){setTimeout(connect,1000)}}` +
	`connect()})();`

const notFoundPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Not found</title></head>` +
	`<body><h1>404</h1><p>This page was not generated.</p></body></html>`

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	root := http.Dir(s.config.Site.OutputDir)
	name := path.Clean("/" + r.URL.Path)

	f, err := root.Open(name)
	if err != nil {
		s.serveNotFound(w, r, root)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.serveNotFound(w, r, root)
		return
	}
	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, "index.html")
		if f, err = root.Open(name); err != nil {
			s.serveNotFound(w, r, root)
			return
		}
		defer f.Close()
		if info, err = f.Stat(); err != nil || info.IsDir() {
			s.serveNotFound(w, r, root)
			return
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	if !strings.HasSuffix(name, ".html") {
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return
	}

	body, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeHTML(w, http.StatusOK, body)
}

// serveNotFound answers with the site's own 404.html when it has one.
func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request, root http.FileSystem) {
	body := []byte(notFoundPage)
	if f, err := root.Open("/404.html"); err == nil {
		if custom, err := io.ReadAll(f); err == nil {
			body = custom
		}
		f.Close()
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug(r.Context(), "reading 404 page", "error", err.Error())
	}
	w.Header().Set("Cache-Control", "no-store")
	s.writeHTML(w, http.StatusNotFound, body)
}

func (s *Server) writeHTML(w http.ResponseWriter, status int, body []byte) {
	body = injectBeforeBodyEnd(body, s.injection())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// injection is the markup appended to every served page: the error overlay
// of the last build, if it had problems, and the live-reload client.
func (s *Server) injection() string {
	var b strings.Builder

	s.stateMutex.RLock()
	switch {
	case s.lastErr != nil:
		collector := lerrors.NewErrorCollector()
		collector.AddError(s.lastErr)
		b.WriteString(collector.ErrorOverlay())
	case s.lastResult != nil && s.lastResult.Errors != nil:
		b.WriteString(s.lastResult.Errors.ErrorOverlay())
	}
	s.stateMutex.RUnlock()

	if s.config.Server.LiveReload {
		b.WriteString("<script>" + liveReloadScript + "</script>")
	}
	return b.String()
}

// injectBeforeBodyEnd inserts snippet before the last </body>, or appends it
// when the document has none.
func injectBeforeBodyEnd(doc []byte, snippet string) []byte {
	if snippet == "" {
		return doc
	}
	i := bytes.LastIndex(bytes.ToLower(doc), []byte("</body>"))
	if i < 0 {
		return append(doc, snippet...)
	}
	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:i]...)
	out = append(out, snippet...)
	return append(out, doc[i:]...)
}

// addMiddleware wraps handler with the dev server's security headers and
// request logging.
func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.URL.Path == ReloadPath {
			// the upgrade needs the original writer to hijack
			handler.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
