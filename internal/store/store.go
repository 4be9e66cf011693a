// Package store persists the snippet collection. Two interchangeable
// backends implement one contract: a remote Postgres store shared across
// devices, and a local on-device store used as the fallback. The Router
// decides which one is active and demotes remote to local on failure.
package store

import "github.com/serrynah/music-bites/pkg/models"

// Store is the uniform persistence contract for snippet records.
type Store interface {
	// List returns all snippets ordered by position ascending.
	List() ([]models.Snippet, error)

	// Upsert inserts or replaces the record with the same ID.
	Upsert(snippet models.Snippet) error

	// Delete removes the record with the given ID. Deleting an unknown
	// ID is not an error.
	Delete(id string) error
}
