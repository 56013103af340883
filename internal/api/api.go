package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"org-messaging/internal/config"
	"org-messaging/internal/logic"
	"org-messaging/internal/model"
)

// OrgProvisioner manages per-organization infrastructure. Implemented by
// manager.OrgManager.
type OrgProvisioner interface {
	AddOrganization(orgID uuid.UUID, name string, workers int) error
	RemoveOrganization(orgID uuid.UUID) error
	SetWorkerCount(orgID uuid.UUID, n int) error
}

// EventStore exposes the audit trail recorded by the worker pools.
type EventStore interface {
	ListEventsByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.MessageEvent, error)
}

type API struct {
	Logic   *logic.MessageLogic
	Orgs    OrgProvisioner
	Events  EventStore
	Cfg     *config.Config
	Routers *chi.Mux
}

func NewAPI(l *logic.MessageLogic, orgs OrgProvisioner, events EventStore, cfg *config.Config) *API {
	return &API{
		Logic:   l,
		Orgs:    orgs,
		Events:  events,
		Cfg:     cfg,
		Routers: chi.NewRouter(),
	}
}
