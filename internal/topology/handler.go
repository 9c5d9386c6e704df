package topology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"dialectical-topology/internal/dataset"
	"dialectical-topology/internal/fixture"
	"dialectical-topology/internal/platform/metrics"
	"dialectical-topology/internal/playback"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 16

// Handler exposes the topology HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	charts  *ChartRenderer
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, chart renderer,
// Logger, and optional Metrics. Metrics may be nil (e.g. in tests).
func NewHandler(svc *Service, charts *ChartRenderer, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, charts: charts, log: log, metrics: m}
}

// Routes registers every endpoint on r. Mount r under the base path.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/data/{file}", h.GetFixture)
	r.Get("/api/lenses/{lens}", h.GetLens)
	r.Route("/api/views", func(r chi.Router) {
		r.Post("/", h.MountView)
		r.Route("/{view_id}", func(r chi.Router) {
			r.Get("/", h.GetFrame)
			r.Delete("/", h.UnmountView)
			r.Post("/{action}", h.Command)
		})
	})
	r.Get("/api/worldviews/radar", h.GetRadar)
	r.Get("/api/worldviews/spectrum", h.GetSpectra)
	r.Get("/api/flow/geometry", h.GetFlowLayout)
	if h.charts != nil {
		r.Get("/charts/worldviews", h.WorldviewsChart)
		r.Get("/charts/flow", h.FlowChart)
	}
}

// GetFixture handles GET /data/{file}: the raw fixture, served from cache.
func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Raw(r.Context(), chi.URLParam(r, "file"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// GetLens handles GET /api/lenses/{lens}: the normalised dataset of a lens.
func (h *Handler) GetLens(w http.ResponseWriter, r *http.Request) {
	lens, err := dataset.ParseLens(chi.URLParam(r, "lens"))
	if err != nil {
		h.writeError(w, ErrUnknownLens)
		return
	}
	data, err := h.svc.Lens(r.Context(), lens)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

type mountRequest struct {
	Lens string `json:"lens"`
}

// MountView handles POST /api/views.
// Body: { "lens": "landscape" }.
func (h *Handler) MountView(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.log.Debug("invalid mount body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	lens, err := dataset.ParseLens(req.Lens)
	if err != nil {
		h.writeError(w, ErrUnknownLens)
		return
	}

	res, err := h.svc.Mount(r.Context(), lens)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, res)
}

// UnmountView handles DELETE /api/views/{view_id}.
func (h *Handler) UnmountView(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unmount(ViewID(chi.URLParam(r, "view_id"))); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFrame handles GET /api/views/{view_id}.
func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Frame(ViewID(chi.URLParam(r, "view_id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

// Command handles POST /api/views/{view_id}/{action}. The body carries the
// action arguments, e.g. { "time": 120 } for seek. It may be empty for
// actions without a required argument.
// Responds with the frame after the command.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	id := ViewID(chi.URLParam(r, "view_id"))
	cmd := Command{Action: Action(chi.URLParam(r, "action"))}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch {
	case len(bytes.TrimSpace(body)) == 0:
		if needsBody(cmd.Action) {
			h.writeError(w, fmt.Errorf("%w: %s needs a request body", ErrInvalidArgument, cmd.Action))
			return
		}
	default:
		if err := json.Unmarshal(body, &cmd); err != nil {
			h.log.Debug("invalid command body",
				slog.String("view_id", string(id)),
				slog.String("action", string(cmd.Action)),
				slog.String("error", err.Error()))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	if err := h.svc.Command(r.Context(), id, cmd); err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Debug("command applied", slog.String("view_id", string(id)), slog.String("action", string(cmd.Action)))

	f, err := h.svc.Frame(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

// GetRadar handles GET /api/worldviews/radar?size=280.
func (h *Handler) GetRadar(w http.ResponseWriter, r *http.Request) {
	var size float64
	if s := r.URL.Query().Get("size"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		size = v
	}
	chart, err := h.svc.Radar(r.Context(), size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chart)
}

// GetSpectra handles GET /api/worldviews/spectrum.
func (h *Handler) GetSpectra(w http.ResponseWriter, r *http.Request) {
	bars, err := h.svc.Spectra(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bars)
}

// GetFlowLayout handles GET /api/flow/geometry.
func (h *Handler) GetFlowLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.svc.FlowLayout(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, layout)
}

// WorldviewsChart handles GET /charts/worldviews.
func (h *Handler) WorldviewsChart(w http.ResponseWriter, r *http.Request) {
	h.writeChart(w, func(buf *bytes.Buffer) error { return h.charts.Worldviews(r.Context(), buf) })
}

// FlowChart handles GET /charts/flow.
func (h *Handler) FlowChart(w http.ResponseWriter, r *http.Request) {
	h.writeChart(w, func(buf *bytes.Buffer) error { return h.charts.Flow(r.Context(), buf) })
}

func (h *Handler) writeChart(w http.ResponseWriter, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type errorResponse struct {
	Error string `json:"error"`
	File  string `json:"file,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps service errors to a status and a JSON body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var le *fixture.LoadError
	switch {
	case errors.As(err, &le):
		status := http.StatusBadGateway
		if le.Kind == fixture.KindNotFound && !dataset.IsFile(le.File) {
			status = http.StatusNotFound
		}
		h.log.Warn("data load failure",
			slog.String("file", le.File),
			slog.String("kind", le.Kind.String()),
			slog.String("error", err.Error()))
		h.writeJSON(w, status, errorResponse{Error: le.Error(), File: le.File, Kind: le.Kind.String()})
	case errors.Is(err, ErrViewNotFound), errors.Is(err, ErrPointNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnknownLens):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnknownCommand),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, playback.ErrInvalidSpeed):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrNoPlayback), errors.Is(err, ErrStaticMode):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error("encode response failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// needsBody reports whether action has an argument with no usable default.
func needsBody(a Action) bool {
	switch a {
	case ActionSeek, ActionSpeed, ActionMode:
		return true
	}
	return false
}
