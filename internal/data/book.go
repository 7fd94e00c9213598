// Package data provides the book record, its validation rules, and the
// in-memory store the rest of the application reads and writes through.
package data

import (
	"strings"
	"time"

	"github.com/aoideee/bookshelf-api/internal/validator"
)

// MinPublishedYear is the earliest publication year a book may carry.
const MinPublishedYear = 1900

// Book represents a single book record held by the Store.
type Book struct {
	ID            string    `json:"id"`             // Opaque unique identifier, fixed at creation
	Title         string    `json:"title"`          // Title of the book
	Author        string    `json:"author"`         // Name of the author
	PublishedYear int       `json:"published_year"` // Year the book was published
	Price         float64   `json:"price"`          // Price, strictly positive
	Tags          []string  `json:"tags"`           // Optional tags; nil means "no tags given"
	CreatedAt     time.Time `json:"created_at"`     // Set once when the record is created
	UpdatedAt     time.Time `json:"updated_at"`     // Refreshed on every successful update
}

// clone returns a deep copy of b. A nil Tags slice stays nil and an empty
// one stays empty, so absence survives the copy.
func (b *Book) clone() *Book {
	cp := *b
	if b.Tags != nil {
		cp.Tags = make([]string, len(b.Tags))
		copy(cp.Tags, b.Tags)
	}
	return &cp
}

// HasTag reports whether tag is one of b's tags. The match is exact and
// case-sensitive.
func (b *Book) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CreateBookInput holds the fields a client must supply when creating a new book.
// Tags is optional.
type CreateBookInput struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	PublishedYear int      `json:"published_year"`
	Price         float64  `json:"price"`
	Tags          []string `json:"tags"`
}

// Book builds a candidate record with the given id from the input.
func (in CreateBookInput) Book(id string) *Book {
	return &Book{
		ID:            id,
		Title:         in.Title,
		Author:        in.Author,
		PublishedYear: in.PublishedYear,
		Price:         in.Price,
		Tags:          in.Tags,
	}
}

// UpdateBookInput holds the fields a client may supply when partially updating a book.
// Each field records whether it was sent at all and whether it was sent as
// null, so "leave as-is", "set to this" and "clear" stay distinct.
// Only tags may be cleared; a null for any other field fails validation.
type UpdateBookInput struct {
	Title         Optional[string]   `json:"title"`
	Author        Optional[string]   `json:"author"`
	PublishedYear Optional[int]      `json:"published_year"`
	Price         Optional[float64]  `json:"price"`
	Tags          Optional[[]string] `json:"tags"`
}

// Fields returns the JSON names of the fields present in the input,
// including those sent as null.
func (in UpdateBookInput) Fields() []string {
	fields := []string{}
	if in.Title.Set {
		fields = append(fields, "title")
	}
	if in.Author.Set {
		fields = append(fields, "author")
	}
	if in.PublishedYear.Set {
		fields = append(fields, "published_year")
	}
	if in.Price.Set {
		fields = append(fields, "price")
	}
	if in.Tags.Set {
		fields = append(fields, "tags")
	}
	return fields
}

// Apply returns a copy of existing with every present field of the input
// written over it. A null tags field clears the tags back to absent.
// existing itself is left untouched.
func (in UpdateBookInput) Apply(existing *Book) *Book {
	book := existing.clone()
	if in.Title.Present() {
		book.Title = strings.TrimSpace(in.Title.Value)
	}
	if in.Author.Present() {
		book.Author = strings.TrimSpace(in.Author.Value)
	}
	if in.PublishedYear.Present() {
		book.PublishedYear = in.PublishedYear.Value
	}
	if in.Price.Present() {
		book.Price = in.Price.Value
	}
	switch {
	case in.Tags.Null:
		book.Tags = nil
	case in.Tags.Set:
		book.Tags = make([]string, len(in.Tags.Value))
		copy(book.Tags, in.Tags.Value)
	}
	return book
}

// NormalizeBook trims the surrounding whitespace from title and author.
func NormalizeBook(book *Book) {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
}

// ValidateBook checks every field rule against book. now supplies the
// current calendar year for the publication year bound.
func ValidateBook(v *validator.Validator, book *Book, now time.Time) {
	validateTitle(v, book.Title)
	validateAuthor(v, book.Author)
	validatePublishedYear(v, book.PublishedYear, now)
	validatePrice(v, book.Price)
}

// ValidateUpdateInput checks only the fields present in a partial update.
// Required fields sent as null are rejected.
func ValidateUpdateInput(v *validator.Validator, in UpdateBookInput, now time.Time) {
	const notNull = "must not be null"

	v.Check(!in.Title.Null, "title", notNull)
	if in.Title.Present() {
		validateTitle(v, in.Title.Value)
	}
	v.Check(!in.Author.Null, "author", notNull)
	if in.Author.Present() {
		validateAuthor(v, in.Author.Value)
	}
	v.Check(!in.PublishedYear.Null, "published_year", notNull)
	if in.PublishedYear.Present() {
		validatePublishedYear(v, in.PublishedYear.Value, now)
	}
	v.Check(!in.Price.Null, "price", notNull)
	if in.Price.Present() {
		validatePrice(v, in.Price.Value)
	}
}

func validateTitle(v *validator.Validator, title string) {
	v.Check(validator.NotBlank(title), "title", "must not be empty or contain only whitespace")
}

func validateAuthor(v *validator.Validator, author string) {
	v.Check(validator.NotBlank(author), "author", "must not be empty or contain only whitespace")
}

func validatePublishedYear(v *validator.Validator, year int, now time.Time) {
	v.Check(validator.Between(year, MinPublishedYear, now.Year()), "published_year", "must be between 1900 and the current year")
}

func validatePrice(v *validator.Validator, price float64) {
	v.Check(price > 0, "price", "must be greater than 0")
}
