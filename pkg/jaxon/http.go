package jaxon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/morezero/jaxon/pkg/dispatcher"
	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/request"
)

const httpLogPrefix = "jaxon:http"

// ServeHTTP serves an AJAX request. A request no plugin recognizes is
// answered with a NOT_HANDLED error.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !a.serve(w, r) {
		writeError(w, errdefs.NewRequestError(errdefs.CodeNotHandled, a.translator.Trans(i18n.ErrNotHandled, nil), nil))
	}
}

// Middleware serves the AJAX requests sent to the configured request URI and
// passes every other request, or one no plugin recognizes, to next.
func (a *App) Middleware(next http.Handler) http.Handler {
	uri := a.RequestURI()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != uri {
			next.ServeHTTP(w, r)
			return
		}
		if !a.serve(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// RequestURI returns the path the client runtime posts to.
func (a *App) RequestURI() string {
	return a.opts.String("core.request.uri", "/jaxon")
}

// serve dispatches r and writes the response. It returns false, without
// writing anything, when the request was not handled.
func (a *App) serve(w http.ResponseWriter, r *http.Request) bool {
	rc, err := request.FromHTTP(r, a.maxMemory)
	if err != nil {
		writeError(w, errdefs.NewRequestError(errdefs.CodeInvalidArgument, err.Error(), nil))
		return true
	}

	res := a.ProcessRequest(r.Context(), rc)
	if !res.Handled {
		return false
	}
	if res.Err != nil {
		writeError(w, res.Err)
		return true
	}

	body, err := res.Response.Output()
	if err != nil {
		slog.Error(fmt.Sprintf("%s - %v", httpLogPrefix, err))
		writeError(w, errdefs.NewRequestError(errdefs.CodeInternal, a.translator.Trans(i18n.ErrInternal, nil), nil))
		return true
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to write response: %v", httpLogPrefix, err))
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	env := dispatcher.NewErrorEnvelope(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.Error.HTTPStatus())
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to write error: %v", httpLogPrefix, err))
	}
}
