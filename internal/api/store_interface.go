package api

import "github.com/soaringjerry/devlevel/internal/services"

// Store is the persistence contract the router is built on. Every read and
// write is scoped by user id; implementations return copies, never shared
// pointers.
type Store interface {
	services.AuthStore
	services.EntryStore
	services.ReflectionStore
	services.ExperimentStore
	Close() error
}

var (
	_ Store                = (*memoryStore)(nil)
	_ services.EntryLister = (*memoryStore)(nil)
)
