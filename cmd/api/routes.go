// cmd/api/routes.go
package main

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the recoverPanic and rateLimit middlewares. Background work started by
// the middleware stops when ctx is done.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → rateLimit → router
//
// Current endpoints:
//
//	GET    /v1/healthcheck  – service status and version
//	POST   /v1/books        – create a new book
//	GET    /v1/books/:id    – retrieve a single book by ID
//	GET    /v1/books        – list all books, optionally ?tag=
//	PATCH  /v1/books/:id    – partially update an existing book
//	DELETE /v1/books/:id    – delete a book by ID
func (app *applicationDependencies) routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodPost, "/v1/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", app.deleteBookHandler)

	return app.recoverPanic(app.rateLimit(ctx, router))
}
