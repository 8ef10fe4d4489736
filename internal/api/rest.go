// Package api is the inbound HTTP adapter: it translates wire requests into
// application commands and renders the service's results and errors back as
// JSON. Status codes are chosen here; the core never sees them.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openrack/skiff/internal/events"
	"github.com/openrack/skiff/internal/fault"
	"github.com/openrack/skiff/internal/models"
	"github.com/openrack/skiff/internal/server"
)

// Config carries adapter settings.
type Config struct {
	// APIKey guards every route except /healthz when non-empty.
	APIKey string
}

type Handler struct {
	svc       *server.Service
	publisher *events.Publisher
	log       *zap.Logger
}

// NewHTTPHandler wires the routes. publisher may be nil when eventing is
// disabled.
func NewHTTPHandler(svc *server.Service, publisher *events.Publisher, log *zap.Logger, cfg Config) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, publisher: publisher, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("POST /servers", instrument("create_server", http.HandlerFunc(h.handleCreateServer)))
	mux.Handle("GET /servers", instrument("list_servers", http.HandlerFunc(h.handleListServers)))
	mux.Handle("POST /servers/{id}/disks", instrument("attach_disk", http.HandlerFunc(h.handleAttachDisk)))

	var handler http.Handler = mux
	if cfg.APIKey != "" {
		handler = requireAPIKey(cfg.APIKey, handler)
	}
	return securityHeaders(handler)
}

// ---------- request/response DTOs ----------
// Decoupled from the domain structs so the wire contract can evolve
// independently of internal/models.

type createServerRequest struct {
	Name      string `json:"name"`
	CPUCores  int    `json:"cpu_cores"`
	RAMGB     int    `json:"ram_gb"`
	StorageGB int    `json:"storage_gb"`
}

type attachDiskRequest struct {
	SizeGB int `json:"size_gb"`
}

type diskResponse struct {
	ID         string    `json:"id"`
	SizeGB     int       `json:"size_gb"`
	AttachedAt time.Time `json:"attached_at"`
}

type serverResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CPUCores  int            `json:"cpu_cores"`
	RAMGB     int            `json:"ram_gb"`
	StorageGB int            `json:"storage_gb"`
	Status    string         `json:"status"`
	Disks     []diskResponse `json:"disks"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toServerResponse(srv *models.Server) serverResponse {
	disks := make([]diskResponse, 0, len(srv.Disks))
	for _, d := range srv.Disks {
		disks = append(disks, diskResponse{ID: d.ID, SizeGB: d.SizeGB, AttachedAt: d.AttachedAt})
	}
	return serverResponse{
		ID:        srv.ID,
		Name:      srv.Name,
		CPUCores:  srv.CPUCores,
		RAMGB:     srv.RAMGB,
		StorageGB: srv.StorageGB,
		Status:    string(srv.Status),
		Disks:     disks,
		CreatedAt: srv.CreatedAt,
		UpdatedAt: srv.UpdatedAt,
	}
}

// ---------- handlers ----------

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req createServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	ctx := r.Context()
	srv, err := h.svc.CreateServer(ctx, server.CreateServerCommand{
		Name:      req.Name,
		CPUCores:  req.CPUCores,
		RAMGB:     req.RAMGB,
		StorageGB: req.StorageGB,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.publisher.ServerCreated(ctx, srv); err != nil {
		h.log.Warn("publish server.created failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, toServerResponse(srv))
}

func (h *Handler) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.svc.ListServers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	resp := make([]serverResponse, 0, len(servers))
	for _, srv := range servers {
		resp = append(resp, toServerResponse(srv))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAttachDisk(w http.ResponseWriter, r *http.Request) {
	var req attachDiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	ctx := r.Context()
	srv, err := h.svc.AttachDisk(ctx, server.AttachDiskCommand{
		ServerID: r.PathValue("id"),
		SizeGB:   req.SizeGB,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.publisher.DiskAttached(ctx, srv, srv.Disks[len(srv.Disks)-1]); err != nil {
		h.log.Warn("publish server.disk_attached failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, toServerResponse(srv))
}

// writeDomainError maps the service's error kinds to status codes.
// Persistence faults are logged in full here and answered with a generic
// body so storage detail never reaches the caller.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation  *fault.ValidationError
		notFound    *fault.NotFoundError
		conflict    *fault.ConflictError
		persistence *fault.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &persistence):
		h.log.Error("storage failure", zap.String("op", persistence.Op), zap.Error(persistence.Unwrap()))
		writeError(w, http.StatusInternalServerError, "an internal error occurred")
	default:
		h.log.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
