// internal/data/models.go
package data

// Models is a top-level container that groups every model the application uses.
// It is passed around the application via applicationDependencies so every handler
// reaches the store through one place.
type Models struct {
	Books *Store // In-memory book records
}

// NewModels constructs a Models value around the given book store.
// Call this once during application startup and store the result in applicationDependencies.
func NewModels(books *Store) Models {
	return Models{
		Books: books,
	}
}
