package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"org-messaging/internal/auth"
	"org-messaging/internal/logic"
	"org-messaging/internal/metrics"
)

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type ConcurrencyConfig struct {
	Workers int `json:"workers"`
}

func (a *API) Router() http.Handler {
	// Public
	a.Routers.Post("/organizations", a.CreateOrganization)
	a.Routers.Delete("/organizations/{id}", a.DeleteOrganization)
	a.Routers.Method(http.MethodGet, "/metrics", metrics.Handler())
	a.Routers.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Secured, scoped to the organization in the JWT
	a.Routers.Group(func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware)

		r.Post("/messages", a.CreateMessage)
		r.Get("/messages", a.ListMessages)
		r.Get("/messages/{id}", a.GetMessage)
		r.Put("/messages/{id}", a.UpdateMessage)
		r.Delete("/messages/{id}", a.DeleteMessage)
		r.Patch("/messages/{id}/deactivate", a.DeactivateMessage)
		r.Get("/events", a.ListEvents)
		r.Put("/config/concurrency", a.UpdateConcurrency)
	})

	return a.Routers
}

// @Summary Create an organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param body body CreateOrganizationRequest false "Organization name"
// @Success 201 {object} map[string]string
// @Router /organizations [post]
func (a *API) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var body CreateOrganizationRequest
	_ = json.NewDecoder(r.Body).Decode(&body) // name is optional

	id := uuid.New()
	if err := a.Orgs.AddOrganization(id, body.Name, a.Cfg.Workers); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to provision organization")
		log.Error().Err(err).Msg("organization provisioning failed")
		return
	}

	token, err := auth.GenerateToken(id.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	log.Info().Str("organization_id", id.String()).Msg("organization created")
	writeJSON(w, http.StatusCreated, map[string]string{
		"organization_id": id.String(),
		"token":           token,
	})
}

// @Summary Delete an organization
// @Tags Organizations
// @Param id path string true "Organization UUID"
// @Success 204
// @Router /organizations/{id} [delete]
func (a *API) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	_ = a.Orgs.RemoveOrganization(id)

	log.Info().Str("organization_id", id.String()).Msg("organization deleted")
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Create a message
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param body body logic.CreateMessageRequest true "Message fields"
// @Success 201 {object} model.Message
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /messages [post]
func (a *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[logic.CreateMessageRequest](w, r)
	if !ok {
		return
	}

	res, err := a.Logic.Create(r.Context(), orgID, req)
	a.respond(w, "create", res, err, http.StatusCreated, true)
}

// @Summary Update a message
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Message UUID"
// @Param body body logic.UpdateMessageRequest true "Message fields"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /messages/{id} [put]
func (a *API) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	req, ok := decodeBody[logic.UpdateMessageRequest](w, r)
	if !ok {
		return
	}

	res, err := a.Logic.Update(r.Context(), orgID, id, req)
	a.respond(w, "update", res, err, http.StatusNoContent, false)
}

// @Summary Delete a message
// @Tags Messages
// @Security ApiKeyAuth
// @Param id path string true "Message UUID"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /messages/{id} [delete]
func (a *API) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	res, err := a.Logic.Delete(r.Context(), orgID, id)
	a.respond(w, "delete", res, err, http.StatusNoContent, false)
}

// @Summary Deactivate a message
// @Tags Messages
// @Security ApiKeyAuth
// @Param id path string true "Message UUID"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /messages/{id}/deactivate [patch]
func (a *API) DeactivateMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	res, err := a.Logic.Deactivate(r.Context(), orgID, id)
	a.respond(w, "deactivate", res, err, http.StatusNoContent, false)
}

// @Summary Get a message
// @Tags Messages
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Message UUID"
// @Success 200 {object} model.Message
// @Failure 404 {object} map[string]string
// @Router /messages/{id} [get]
func (a *API) GetMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}

	res, err := a.Logic.Get(r.Context(), orgID, id)
	a.respond(w, "get", res, err, http.StatusOK, true)
}

// @Summary List messages for the organization
// @Tags Messages
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /messages [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}

	messages, err := a.Logic.List(r.Context(), orgID)
	if err != nil {
		metrics.MessageOps.WithLabelValues("list", "fatal").Inc()
		log.Error().Err(err).Str("organization_id", orgID.String()).Msg("list failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	metrics.MessageOps.WithLabelValues("list", "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

// @Summary List lifecycle events for the organization
// @Tags Events
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /events [get]
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}

	events, err := a.Events.ListEventsByOrganization(r.Context(), orgID)
	if err != nil {
		log.Error().Err(err).Str("organization_id", orgID.String()).Msg("event list failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": events})
}

// @Summary Update worker pool concurrency
// @Tags Organizations
// @Security ApiKeyAuth
// @Accept json
// @Param body body ConcurrencyConfig true "Concurrency config"
// @Success 204
// @Router /config/concurrency [put]
func (a *API) UpdateConcurrency(w http.ResponseWriter, r *http.Request) {
	orgID, ok := a.orgFromRequest(w, r)
	if !ok {
		return
	}

	var body ConcurrencyConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if body.Workers <= 0 {
		writeError(w, http.StatusBadRequest, "workers must be positive")
		return
	}

	if err := a.Orgs.SetWorkerCount(orgID, body.Workers); err != nil {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respond maps a logic outcome onto the HTTP surface. okStatus is the
// success code; withPayload controls whether the message body is written.
func (a *API) respond(w http.ResponseWriter, op string, res logic.Result, err error, okStatus int, withPayload bool) {
	if err != nil {
		metrics.MessageOps.WithLabelValues(op, "fatal").Inc()
		log.Error().Err(err).Str("operation", op).Msg("message operation failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	metrics.MessageOps.WithLabelValues(op, res.Status.String()).Inc()

	switch res.Status {
	case logic.StatusOK:
		if withPayload && res.Message != nil {
			writeJSON(w, okStatus, res.Message)
			return
		}
		w.WriteHeader(okStatus)
	case logic.StatusNotFound:
		writeError(w, http.StatusNotFound, res.Reason)
	case logic.StatusConflict:
		writeError(w, http.StatusConflict, res.Reason)
	case logic.StatusInvalid:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": res.Fields})
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *API) orgFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(auth.GetOrganizationID(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized organization")
		return uuid.Nil, false
	}
	return orgID, true
}

func messageIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody parses a JSON body, distinguishing an absent body (nil
// request for the logic layer) from a malformed one.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, true
	}
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return nil, false
	}
	return &v, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
