package data

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aoideee/bookshelf-api/internal/validator"
)

// Store is an in-memory collection of books keyed by id. It is safe for
// concurrent use: reads share a lock and writes take it exclusively.
//
// Records handed in are copied before being stored and records handed out
// are copies, so callers can never reach the stored values.
type Store struct {
	mu     sync.RWMutex
	books  map[string]*Book
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and for the
// publication year upper bound.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty Store. A nil logger discards all output.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		books:  make(map[string]*Book),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info("book store initialized")
	return s
}

// Create inserts book and returns the stored copy. Title and author are
// trimmed, and zero CreatedAt/UpdatedAt values are stamped with the current time.
func (s *Store) Create(book *Book) (created *Book, err error) {
	defer s.recoverFailure("create", &err)

	if book == nil {
		return nil, s.invalid("create", "book must be provided")
	}
	if book.ID == "" {
		return nil, s.invalid("create", "book id must not be empty")
	}

	candidate := book.clone()
	NormalizeBook(candidate)

	now := s.now()
	if err := s.validate("create", candidate, now); err != nil {
		return nil, err
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	if candidate.UpdatedAt.IsZero() {
		candidate.UpdatedAt = candidate.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[candidate.ID]; exists {
		s.logger.Error("book already exists", "op", "create", "book_id", candidate.ID)
		return nil, fmt.Errorf("%w: book with id %q", ErrAlreadyExists, candidate.ID)
	}
	s.books[candidate.ID] = candidate

	s.logger.Info("book created", "book_id", candidate.ID)
	return candidate.clone(), nil
}

// Get returns the book stored under id. A missing book is not an error:
// found is false and the book is nil.
func (s *Store) Get(id string) (book *Book, found bool, err error) {
	defer s.recoverFailure("get", &err)

	if id == "" {
		return nil, false, s.invalid("get", "book id must not be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.books[id]
	if !ok {
		s.logger.Debug("book not found", "book_id", id)
		return nil, false, nil
	}

	s.logger.Debug("book retrieved", "book_id", id)
	return stored.clone(), true, nil
}

// Update replaces the book stored under id with book. The stored id is
// pinned onto the new value whatever book.ID says, CreatedAt is carried
// over from the previous value, and UpdatedAt is set to the current time.
//
// found is false, with no error, when nothing is stored under id.
func (s *Store) Update(id string, book *Book) (updated *Book, found bool, err error) {
	defer s.recoverFailure("update", &err)

	if id == "" {
		return nil, false, s.invalid("update", "book id must not be empty")
	}
	if book == nil {
		return nil, false, s.invalid("update", "book must be provided")
	}

	candidate := book.clone()
	candidate.ID = id
	NormalizeBook(candidate)

	now := s.now()
	if err := s.validate("update", candidate, now); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[id]
	if !ok {
		s.logger.Warn("attempted to update non-existent book", "book_id", id)
		return nil, false, nil
	}
	candidate.CreatedAt = existing.CreatedAt
	candidate.UpdatedAt = now
	s.books[id] = candidate

	s.logger.Info("book updated", "book_id", id)
	return candidate.clone(), true, nil
}

// Delete removes the book stored under id and reports whether there was one.
func (s *Store) Delete(id string) (deleted bool, err error) {
	defer s.recoverFailure("delete", &err)

	if id == "" {
		return false, s.invalid("delete", "book id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		s.logger.Warn("attempted to delete non-existent book", "book_id", id)
		return false, nil
	}
	delete(s.books, id)

	s.logger.Info("book deleted", "book_id", id)
	return true, nil
}

// List returns every stored book, or only those carrying tag when tag is
// not empty. The result is never nil and has no particular order.
func (s *Store) List(tag string) (books []*Book, err error) {
	defer s.recoverFailure("list", &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	books = make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		if tag != "" && !b.HasTag(tag) {
			continue
		}
		books = append(books, b.clone())
	}

	if tag != "" {
		s.logger.Debug("books filtered by tag", "tag", tag, "count", len(books))
	} else {
		s.logger.Debug("all books listed", "count", len(books))
	}
	return books, nil
}

// Len returns the number of stored books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Clear removes every book and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.books)
	clear(s.books)

	s.logger.Info("book store cleared", "removed", n)
	return n
}

func (s *Store) validate(op string, book *Book, now time.Time) error {
	v := validator.New()
	ValidateBook(v, book, now)
	if v.Valid() {
		return nil
	}
	s.logger.Error("book failed validation", "op", op, "book_id", book.ID, "errors", v.Errors)
	return &ValidationError{Errors: v.Errors}
}

func (s *Store) invalid(op, msg string) error {
	s.logger.Error("invalid argument", "op", op, "error", msg)
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// recoverFailure turns a panic inside a Store operation into an ErrStorage
// error on the operation's named error result. It must be deferred directly.
func (s *Store) recoverFailure(op string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("unexpected storage failure", "op", op, "panic", r)
		*err = fmt.Errorf("%w: %s: %v", ErrStorage, op, r)
	}
}
