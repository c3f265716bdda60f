package html

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Page is a rendered report served under /<Name>.
type Page struct {
	Name    string
	Content string
}

// NewHandler serves the pages. "/" shows the only page directly, or an index
// when there are several.
func NewHandler(pages []Page) http.Handler {
	mux := http.NewServeMux()
	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = sanitizeFileName(p.Name)
	}
	paths := uniqueNames(names)

	for i, p := range pages {
		path := "/" + paths[i]
		paths[i] = path

		content := p.Content
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			writePage(w, content)
		})
	}

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		if len(pages) == 1 {
			writePage(w, pages[0].Content)
			return
		}
		var sb strings.Builder
		sb.WriteString("<!DOCTYPE html><html><head><meta charset='utf-8'><title>hangdiag reports</title></head><body><ul>")
		for i, p := range pages {
			fmt.Fprintf(&sb, "<li><a href='%s'>%s</a></li>", escape(paths[i]), escape(p.Name))
		}
		sb.WriteString("</ul></body></html>")
		writePage(w, sb.String())
	})
	return mux
}

func writePage(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// Serve listens on addr and serves handler over HTTP/1.1 and HTTP/2 cleartext
// until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, handler, logger)
}

func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("serving report", "addr", "http://"+ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("report server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down report server: %w", err)
		}
		return nil
	}
}
