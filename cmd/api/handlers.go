// cmd/api/handlers.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the book store.
package main

import (
	"net/http"
	"time"

	"github.com/aoideee/bookshelf-api/internal/data"
	"github.com/aoideee/bookshelf-api/internal/validator"
)

// healthcheckHandler handles GET /v1/healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.environment,
			"version":     appVersion,
		},
	}
	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBookHandler handles POST /v1/books.
// It reads a JSON body containing the new book's details, assigns a fresh
// UUID, stores the book, and responds with the created book and a 201 Created status.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.CreateBookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := input.Book(newBookID())
	app.logger.Debug("creating book", "book_id", book.ID, "title", book.Title, "author", book.Author)

	// The store validates the candidate; field failures come back as a
	// *data.ValidationError and are reported as 422.
	created, err := app.models.Books.Create(book)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/books/"+created.ID)

	err = app.writeJSON(w, http.StatusCreated, envelope{"book": created}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id.
// Responds 400 if :id is not a UUID and 404 if no book with that id exists.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, found, err := app.models.Books.Get(id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}
	if !found {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// An optional ?tag= query parameter keeps only books carrying exactly that tag.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	tag := app.readString(r.URL.Query(), "tag", "")

	books, err := app.models.Books.List(tag)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PATCH /v1/books/:id.
// It reads a partial JSON body (UpdateBookInput), finds the existing book,
// merges in only the fields that were provided, and stores the result.
// Responds 404 if the book does not exist.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input data.UpdateBookInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if data.ValidateUpdateInput(v, input, time.Now()); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	existing, found, err := app.models.Books.Get(id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}
	if !found {
		app.notFoundResponse(w, r)
		return
	}

	updated, found, err := app.models.Books.Update(id, input.Apply(existing))
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}
	// The book may have been deleted between Get and Update.
	if !found {
		app.notFoundResponse(w, r)
		return
	}

	app.logger.Info("book updated", "book_id", id, "updated_fields", input.Fields())

	err = app.writeJSON(w, http.StatusOK, envelope{"book": updated}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /v1/books/:id.
// Responds 404 if no book with that id exists.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	deleted, err := app.models.Books.Delete(id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}
	if !deleted {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
