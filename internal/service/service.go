// Package service holds the marketplace rules: who the caller is, what they
// may change, and how catalog and order writes reach the data store.
package service

import (
	"time"

	"marketplace-service/internal/blob"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/config"
	"marketplace-service/prometheus"

	"github.com/google/uuid"
)

// Notifier receives table changes once they are committed
type Notifier interface {
	Publish(c realtime.Change)
}

type nopNotifier struct{}

func (nopNotifier) Publish(realtime.Change) {}

// Services bundles every component the transport layer calls
type Services struct {
	Profiles  *ProfileResolver
	Suppliers *SupplierRegistrar
	Directory *Directory
	Catalog   *CatalogManager
	Composer  *OrderComposer
	Lifecycle *OrderLifecycle
	Favorites *Favorites
	Messages  *Messages
}

// New wires the services over one repository, blob store and notifier.
// A nil notifier discards change notifications.
func New(repo repository.Repository, store blob.Store, notifier Notifier, storage config.StorageConfig) *Services {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	profiles := NewProfileResolver(repo, notifier)
	suppliers := NewSupplierRegistrar(repo, notifier)
	catalog := NewCatalogManager(repo, store, notifier, profiles, suppliers, storage.MaxImageBytes)

	return &Services{
		Profiles:  profiles,
		Suppliers: suppliers,
		Directory: NewDirectory(repo, profiles, suppliers),
		Catalog:   catalog,
		Composer:  NewOrderComposer(repo, notifier, profiles),
		Lifecycle: NewOrderLifecycle(repo, notifier, profiles, suppliers),
		Favorites: NewFavorites(repo, notifier, profiles),
		Messages:  NewMessages(repo, notifier, profiles),
	}
}

// publish announces a write. With an audience, only those profiles are told.
func publish(n Notifier, table string, event realtime.Event, id uuid.UUID, audience ...uuid.UUID) {
	n.Publish(realtime.Change{Table: table, Event: event, RecordID: id, At: time.Now(), Audience: audience})
}

// observe records the outcome of a marketplace operation
func observe(operation string, err *error) {
	prometheus.RecordOperation(operation, *err)
}
