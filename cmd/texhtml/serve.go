package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/go-texhtml"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// convertRequest is the body of POST /v1/images and /v1/markup.
type convertRequest struct {
	HTML      string `json:"html"`
	Selection string `json:"selection,omitempty"` // empty converts the whole document
}

// convertResponse carries the updated document.
type convertResponse struct {
	HTML string `json:"html"`
}

// errorResponse carries a failure message.
type errorResponse struct {
	Error string `json:"error"`
}

// runServeCmd runs the HTTP API until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(env.Stderr, err)
		}
		return ExitUsage
	}
	if err := runServe(ctx, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runServe builds the converter and serves requests.
func runServe(ctx context.Context, flags *serveFlags, env *Environment) error {
	requestTimeout, err := time.ParseDuration(flags.requestTimeout)
	if err != nil || requestTimeout <= 0 {
		return fmt.Errorf("%w: --request-timeout %q", ErrUsage, flags.requestTimeout)
	}
	if flags.maxBody <= 0 {
		return fmt.Errorf("%w: --max-body must be positive", ErrUsage)
	}

	cfg, _, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if err := mergeToolchainFlags(&flags.toolchain, cfg); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	conv, closeConv, err := buildConverter(cfg, logger, env)
	if err != nil {
		return err
	}
	defer func() { _ = closeConv() }()

	if err := checkPrograms(conv.Programs(), env.LookPath); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              flags.addr,
		Handler:           newRouter(conv, env, requestTimeout, flags.maxBody),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", flags.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newRouter wires the API routes.
func newRouter(conv DocumentConverter, env *Environment, timeout time.Duration, maxBody int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(env.Stderr, "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/images", convertHandler(conv, toImages, maxBody))
		r.Post("/markup", convertHandler(conv, toMarkup, maxBody))
	})
	return r
}

// convertHandler decodes a document, converts it and returns the result.
func convertHandler(conv DocumentConverter, d direction, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		var req convertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		out, err := d.apply(r.Context(), conv, texhtml.NewDocument(req.HTML, req.Selection))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, convertResponse{HTML: out})
	}
}

// statusFor maps a conversion error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, texhtml.ErrSelectionNotFound), errors.Is(err, texhtml.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
