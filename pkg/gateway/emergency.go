package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coaching2100/sallyport/pkg/audit"
	"github.com/coaching2100/sallyport/pkg/emergency"
	"github.com/coaching2100/sallyport/pkg/policy"
	"github.com/coaching2100/sallyport/pkg/principal"
)

// Emergency control surface. These paths skip the latch check in the
// middleware (a latched gateway must still accept the deactivate call)
// but are gated on the emergency-control permission both there and here.
const (
	PathEmergencyActivate   = "/emergency/activate"
	PathEmergencyDeactivate = "/emergency/deactivate"
	PathEmergencyStatus     = "/emergency/status"

	// EmergencyResource is the policy resource all control paths map to.
	EmergencyResource = "emergency"
)

// PermissionEmergencyControl gates every latch operation.
var PermissionEmergencyControl = policy.PermissionFor(policy.ActionExecute, EmergencyResource)

// EmergencyHandler exposes the latch over HTTP. It re-checks the control
// permission itself so mounting it without the gateway middleware does
// not leave the latch open.
type EmergencyHandler struct {
	latch    *emergency.Latch
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewEmergencyHandler creates the control surface for the given latch.
func NewEmergencyHandler(latch *emergency.Latch, recorder *audit.Recorder, opts ...EmergencyHandlerOption) (*EmergencyHandler, error) {
	if latch == nil {
		return nil, ErrLatchRequired
	}
	if recorder == nil {
		return nil, ErrRecorderRequired
	}

	h := &EmergencyHandler{
		latch:    latch,
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// EmergencyHandlerOption configures an EmergencyHandler.
type EmergencyHandlerOption func(*EmergencyHandler)

// WithEmergencyLogger sets the logger for audit write failures.
func WithEmergencyLogger(logger *slog.Logger) EmergencyHandlerOption {
	return func(h *EmergencyHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Router returns the control routes, intended to be mounted at
// "/emergency".
func (h *EmergencyHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/activate", h.activate)
	r.Post("/deactivate", h.deactivate)
	r.Get("/status", h.status)
	return r
}

type activateRequest struct {
	Reason string `json:"reason"`
}

func (h *EmergencyHandler) activate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	if err := h.latch.Activate(r.Context(), req.Reason, h.actor(p)); err != nil {
		h.recordTransition(r, p, "emergency:activate", audit.OutcomeDeny, err.Error())
		http.Error(w, "latch store unavailable", http.StatusServiceUnavailable)
		return
	}

	h.recordTransition(r, p, "emergency:activate", audit.OutcomeAllow, req.Reason)
	h.status(w, r)
}

func (h *EmergencyHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.latch.Deactivate(r.Context(), h.actor(p)); err != nil {
		h.recordTransition(r, p, "emergency:deactivate", audit.OutcomeDeny, err.Error())
		http.Error(w, "latch store unavailable", http.StatusServiceUnavailable)
		return
	}

	h.recordTransition(r, p, "emergency:deactivate", audit.OutcomeAllow, "")
	h.status(w, r)
}

func (h *EmergencyHandler) status(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r); !ok {
		return
	}

	state, err := h.latch.Current(r.Context())
	if err != nil {
		// An unreadable latch is reported as active, matching what the
		// middleware enforces.
		state = emergency.State{Active: true}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(state)
}

func (h *EmergencyHandler) authorize(w http.ResponseWriter, r *http.Request) (principal.Principal, bool) {
	p, ok := principal.FromContext(r.Context())
	if !ok || !p.HasPermission(PermissionEmergencyControl) {
		writeRejection(w, Rejection{
			Code:    CodePermissionDenied,
			Message: "emergency control requires " + PermissionEmergencyControl,
		})
		return principal.Principal{}, false
	}
	return p, true
}

func (h *EmergencyHandler) actor(p principal.Principal) string {
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}

func (h *EmergencyHandler) recordTransition(r *http.Request, p principal.Principal, resource string, outcome audit.Outcome, reason string) {
	ev := audit.Event{
		PrincipalID: p.ID,
		AgentID:     p.AgentID,
		Resource:    resource,
		Action:      string(policy.ActionExecute),
		Outcome:     outcome,
		Reason:      reason,
	}
	if err := h.recorder.Record(r.Context(), ev); err != nil {
		h.logger.Error("audit record failed",
			slog.String("resource", resource),
			slog.Any("error", err))
	}
}
