package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chunyu/logs2weekly-go/internal/aggregator"
	"github.com/chunyu/logs2weekly-go/internal/ai"
	"github.com/chunyu/logs2weekly-go/internal/auth"
	internalerrors "github.com/chunyu/logs2weekly-go/internal/errors"
	"github.com/chunyu/logs2weekly-go/internal/logging"
	"github.com/chunyu/logs2weekly-go/internal/prompt"
	"github.com/chunyu/logs2weekly-go/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	store       *store.Store
	agg         *aggregator.Aggregator
	newProvider aggregator.ProviderFactory
	log         *logging.SecureLogger

	aiTimeoutSeconds int
	aiMaxTokens      int
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, agg *aggregator.Aggregator, log *logging.SecureLogger, aiTimeoutSeconds, aiMaxTokens int) *Handler {
	return &Handler{
		store:            st,
		agg:              agg,
		newProvider:      ai.New,
		log:              log,
		aiTimeoutSeconds: aiTimeoutSeconds,
		aiMaxTokens:      aiMaxTokens,
	}
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// userIDParam extracts the user_id query parameter.
func userIDParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, fmt.Errorf("user_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user_id: %q", raw)
	}
	return id, nil
}

// Register handles POST /api/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("username and password are required"))
		return
	}
	if !auth.ValidCNPhone(req.Phone) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid phone number format (Mainland China)"))
		return
	}

	if _, err := h.store.UserByPhone(req.Phone); err == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("user already exists"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Msg("Register: user lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Register: password hashing failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	id, err := h.store.CreateUser(req.Username, req.Phone, hash)
	if err != nil {
		h.log.Error().Err(err).Msg("Register: insert failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("registration failed"))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    UserResponse{ID: id, Username: req.Username, Phone: req.Phone},
	})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	user, err := h.store.UserByPhone(req.Phone)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Login: user lookup failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    UserResponse{ID: user.ID, Username: user.Username, Phone: user.Phone},
	})
}

// ListLogs handles GET /api/logs.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	entries, err := h.store.EntriesForUser(userID, r.URL.Query().Get("q"))
	if err != nil {
		h.log.Error().Int64("user_id", userID).Err(err).Msg("List logs failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// CreateLog handles POST /api/logs.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.UserID <= 0 || req.Content == "" || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("user_id, content and type are required"))
		return
	}

	entry := &store.LogEntry{
		UserID:  req.UserID,
		Content: req.Content,
		Type:    req.Type,
		Status:  req.Status,
		Tags:    req.Tags,
	}
	if _, err := h.store.InsertEntry(entry); err != nil {
		h.log.Error().Int64("user_id", req.UserID).Err(err).Msg("Create log failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// DeleteLog handles DELETE /api/logs/{id}.
func (h *Handler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid log id"))
		return
	}

	if err := h.store.DeleteEntry(id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		h.log.Error().Int64("log_id", id).Err(err).Msg("Delete log failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Aggregate handles POST /api/logs/aggregate, the manual trigger of the
// daily aggregation procedure. No-ops and failures both report success=false
// and are distinguishable by message content.
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	result, err := h.agg.RunForUser(r.Context(), userID)
	if err != nil {
		h.log.Error().Int64("user_id", userID).Err(err).Msg("Manual aggregation failed")
		writeJSON(w, http.StatusOK, AggregateResponse{
			Success: false,
			Message: "aggregation failed: " + internalerrors.SanitizeError(err).Error(),
		})
		return
	}
	if result.NoOp {
		writeJSON(w, http.StatusOK, AggregateResponse{Success: false, Message: result.Message})
		return
	}

	writeJSON(w, http.StatusOK, AggregateResponse{Success: true, SummaryID: result.SummaryID})
}

// CheckConnection handles POST /api/check-connection.
func (h *Handler) CheckConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectionCheckRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !ai.IsValidProviderType(req.ModelType) {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unsupported model type: %q", req.ModelType)))
		return
	}

	provider, err := h.newProvider(ai.Settings{
		Provider:       ai.ProviderType(req.ModelType),
		Model:          req.ModelName,
		APIKey:         strings.TrimSpace(req.APIKey),
		TimeoutSeconds: h.aiTimeoutSeconds,
		MaxTokens:      h.aiMaxTokens,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	result := provider.TestConnection(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// GenerateSummary handles POST /api/generate-summary. It runs the
// weekly-summary prompt plus provider adapter directly, bypassing
// persistence, and returns the parsed report. When the model returns
// something that is not JSON even after fence stripping, the raw text is
// wrapped in a minimal report instead of failing the request.
func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req GenerateSummaryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !ai.IsValidProviderType(req.ModelType) {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unsupported model type: %q", req.ModelType)))
		return
	}

	lines := make([]string, len(req.Logs))
	for i, item := range req.Logs {
		ts := item.Timestamp
		if ts == "" {
			ts = "N/A"
		}
		lines[i] = fmt.Sprintf("[%s] %s: %s", ts, item.Type, item.Content)
	}

	provider, err := h.newProvider(ai.Settings{
		Provider:       ai.ProviderType(req.ModelType),
		Model:          req.ModelName,
		APIKey:         strings.TrimSpace(req.APIKey),
		TimeoutSeconds: h.aiTimeoutSeconds,
		MaxTokens:      h.aiMaxTokens,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	raw, err := provider.Generate(r.Context(), prompt.WeeklySummary(lines), true)
	if err != nil {
		h.log.Error().Err(err).Msg("Weekly summary generation failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("generation failed"))
		return
	}

	report, err := ai.ParseWeeklyReport(raw)
	if err != nil {
		h.log.Warn().Err(err).Msg("Weekly summary response was not JSON, using fallback")
		writeJSON(w, http.StatusOK, ai.FallbackReport(raw))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// GetModelConfig handles GET /api/config.
func (h *Handler) GetModelConfig(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	cfg, err := h.store.ModelConfig(userID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("no model configured"))
		return
	}
	if err != nil {
		h.log.Error().Int64("user_id", userID).Err(err).Msg("Get model config failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	// The stored key never leaves the server in full.
	cfg.APIKey = internalerrors.MaskCredential(cfg.APIKey)
	writeJSON(w, http.StatusOK, cfg)
}

// PutModelConfig handles PUT /api/config.
func (h *Handler) PutModelConfig(w http.ResponseWriter, r *http.Request) {
	var req ModelConfigRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.UserID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("user_id is required"))
		return
	}
	if !ai.IsValidProviderType(req.Provider) {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unsupported provider: %q", req.Provider)))
		return
	}

	cfg := &store.ModelConfig{
		UserID:    req.UserID,
		Provider:  req.Provider,
		ModelName: req.ModelName,
		APIKey:    strings.TrimSpace(req.APIKey),
	}
	if err := h.store.UpsertModelConfig(cfg); err != nil {
		h.log.Error().Int64("user_id", req.UserID).Err(err).Msg("Upsert model config failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
