package domain

import "context"

// Storage is the archive directory of one destination.
type Storage interface {
	// List returns the names of files carrying ext, in lexical order.
	List(ctx context.Context, ext string) ([]string, error)
	// Delete removes name. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error
	GetPath(name string) string
}
