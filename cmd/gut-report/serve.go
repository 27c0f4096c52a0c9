//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/integration/scalene"
	"github.com/farcloser/guttation/internal/output"
	"github.com/farcloser/guttation/internal/render"
)

const (
	cacheSize         = 16
	readHeaderTimeout = 5 * time.Second
)

var errServeArgs = errors.New("expected exactly one argument: path to a profile JSON file")

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve an HTML view of a profile report",
		ArgsUsage: "<profile.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address",
				Value:   ":8077",
			},
			&cli.FloatFlag{
				Name:    "leak-threshold",
				Aliases: []string{"t"},
				Usage:   "Leak score a line must strictly exceed to be flagged",
				Value:   guttation.DefaultLeakThreshold,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errServeArgs, cmd.NArg())
			}

			return serve(cmd.String("addr"), cmd.Args().First(), cmd.Float("leak-threshold"))
		},
	}
}

// cacheKey identifies one on-disk report revision: re-profiling rewrites the
// file, changing mtime or size, which naturally invalidates stale entries.
type cacheKey struct {
	path    string
	modTime int64
	size    int64
}

type viewer struct {
	path      string
	threshold float64
	cache     *lru.Cache[cacheKey, *guttation.Report]
}

func serve(addr, reportPath string, threshold float64) error {
	cache, err := lru.New[cacheKey, *guttation.Report](cacheSize)
	if err != nil {
		return err
	}

	view := &viewer{path: reportPath, threshold: threshold, cache: cache}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", view.handleHTML)
	mux.HandleFunc("GET /json", view.handleJSON)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	slog.Info("serving profile report", "addr", addr, "report", reportPath)

	return server.ListenAndServe()
}

func (v *viewer) load() (*guttation.Report, error) {
	info, err := os.Stat(v.path)
	if err != nil {
		return nil, err
	}

	key := cacheKey{path: v.path, modTime: info.ModTime().UnixNano(), size: info.Size()}

	if report, ok := v.cache.Get(key); ok {
		return report, nil
	}

	raw, err := scalene.Load(v.path)
	if err != nil {
		return nil, err
	}

	report := guttation.Normalize(raw)
	v.cache.Add(key, report)

	return report, nil
}

func (v *viewer) handleHTML(w http.ResponseWriter, r *http.Request) {
	report, err := v.load()
	if err != nil {
		slog.Error("loading report", "error", err)
		http.Error(w, "failed to load report", http.StatusInternalServerError)

		return
	}

	// Render to a buffer first so a template failure cannot leave a torn page.
	var buf bytes.Buffer
	if err := render.HTML(&buf, report, v.threshold); err != nil {
		slog.Error("rendering report", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)

	slog.Debug("served report", "remote", r.RemoteAddr)
}

func (v *viewer) handleJSON(w http.ResponseWriter, r *http.Request) {
	report, err := v.load()
	if err != nil {
		slog.Error("loading report", "error", err)
		http.Error(w, "failed to load report", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(output.ReportToMap(report)); err != nil {
		slog.Error("encoding report", "error", err, "remote", r.RemoteAddr)
	}
}
