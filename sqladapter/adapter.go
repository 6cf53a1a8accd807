package sqladapter

import (
	"mysqladm/identity"
	"mysqladm/validation"

	"gorm.io/gorm"
)

// Adapter executes validated broker operations through the *gorm.DB handle
// it wraps. The session handler builds a fresh Adapter for each session
// around the process-wide pool handle, so its statements are not pinned to
// the connection the handler checks out before sending Ready; it is never
// shared across sessions and carries no mutable state of its own beyond the
// handle.
type Adapter struct {
	db       *gorm.DB
	denylist identity.Denylist
}

// New wraps a database handle (the session handler passes the process-wide
// pool) for use by a single session.
func New(db *gorm.DB, denylist identity.Denylist) *Adapter {
	return &Adapter{db: db, denylist: denylist}
}

// validate runs the full name-validation-then-ownership pipeline for a
// single object name, returning the *validation.Error to store against that
// item if it fails. No SQL is issued for an item that fails here.
func (a *Adapter) validate(name string, kind validation.Kind, id identity.Identity) error {
	if err := validation.ValidateDBOrUserRequest(name, kind, id, a.denylist, validation.ResolveGID); err != nil {
		return err
	}
	return nil
}

// validateBatch validates every name in names, returning the ones that
// passed and recording a per-item error in results for the ones that
// didn't. Callers only need to issue SQL for the returned slice.
func (a *Adapter) validateBatch(names []string, kind validation.Kind, id identity.Identity, results map[string]error) []string {
	ok := make([]string, 0, len(names))
	for _, name := range names {
		if err := a.validate(name, kind, id); err != nil {
			results[name] = err
			continue
		}
		ok = append(ok, name)
	}
	return ok
}
