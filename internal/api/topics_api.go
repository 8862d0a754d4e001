package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tribeca/notifier/pkg/envelope"
	"github.com/tribeca/notifier/pkg/target"
)

// TopicsAPI handles topic subscription management.
type TopicsAPI struct {
	Targets *target.Registry
	Logger  *slog.Logger
}

func NewTopicsAPI(targets *target.Registry, logger *slog.Logger) *TopicsAPI {
	return &TopicsAPI{
		Targets: targets,
		Logger:  logger.With("component", "TopicsAPI"),
	}
}

type topicsRequest struct {
	Topics target.TopicList `json:"topics"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

// GetTopics is GET /topics/{userId}. The response is the bare topic sequence;
// an absent Target reads as an empty one.
func (api *TopicsAPI) GetTopics(w http.ResponseWriter, r *http.Request) {
	app := appID(r)
	userID := chi.URLParam(r, "userId")

	if env := validateUser(app, userID); env != nil {
		writeEnvelope(w, env)
		return
	}

	topics, err := api.Targets.FindTopicsByUser(r.Context(), userID, app)
	if err != nil {
		api.Logger.Error("failed to read topics", "userId", userID, "appId", app, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// AddTopics is POST /topics/{userId}. Subscribing a user with no Target is a
// 404; subscription never creates one.
func (api *TopicsAPI) AddTopics(w http.ResponseWriter, r *http.Request) {
	app := appID(r)
	userID := chi.URLParam(r, "userId")

	var req topicsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if env := validateTopics(app, userID, req.Topics); env != nil {
		writeEnvelope(w, env)
		return
	}

	ok, err := api.Targets.AddTopics(r.Context(), userID, app, req.Topics)
	if err != nil {
		api.Logger.Error("failed to add topics", "userId", userID, "appId", app, "err", err)
		writeError(w, err)
		return
	}
	if !ok {
		writeEnvelope(w, envelope.New(http.StatusNotFound, envelope.ErrUserNotFound,
			map[string]any{"details": fmt.Sprintf("%s in %s not found", userID, app)}))
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: req.Topics})
}

// RemoveTopics is DELETE /topics/{userId}. Idempotent.
func (api *TopicsAPI) RemoveTopics(w http.ResponseWriter, r *http.Request) {
	app := appID(r)
	userID := chi.URLParam(r, "userId")

	var req topicsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if env := validateTopics(app, userID, req.Topics); env != nil {
		writeEnvelope(w, env)
		return
	}

	if err := api.Targets.RemoveTopicsFromUser(r.Context(), userID, app, req.Topics); err != nil {
		api.Logger.Error("failed to remove topics", "userId", userID, "appId", app, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: req.Topics})
}

// RemoveTopicsFromAllUsers is DELETE /topics. It unsubscribes every user of
// the tenant from the listed topics.
func (api *TopicsAPI) RemoveTopicsFromAllUsers(w http.ResponseWriter, r *http.Request) {
	app := appID(r)

	var req topicsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b := envelope.NewBuilder()
	if app == "" {
		b.Add(envelope.ErrAppID)
	}
	if len(req.Topics) == 0 {
		b.AddMeta(envelope.ErrBodyParamsMissing, map[string]any{"params": []string{"topics"}})
	}
	if env := b.Envelope(); env != nil {
		writeEnvelope(w, env)
		return
	}

	if err := api.Targets.RemoveTopicsFromAllUsers(r.Context(), app, req.Topics); err != nil {
		api.Logger.Error("failed to remove topics tenant-wide", "appId", app, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: req.Topics})
}

func validateUser(app, userID string) *envelope.Envelope {
	b := envelope.NewBuilder()
	if app == "" {
		b.Add(envelope.ErrAppID)
	}
	if userID == "" {
		b.Add(envelope.ErrUserID)
	}
	return b.Envelope()
}

func validateTopics(app, userID string, topics []string) *envelope.Envelope {
	b := envelope.NewBuilder()
	if app == "" {
		b.Add(envelope.ErrAppID)
	}
	if userID == "" {
		b.Add(envelope.ErrUserID)
	}
	if len(topics) == 0 {
		b.AddMeta(envelope.ErrBodyParamsMissing, map[string]any{"params": []string{"topics"}})
	}
	return b.Envelope()
}
