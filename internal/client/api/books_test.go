package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooksServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/books", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"1","title":"Dune","authors":["Frank Herbert"]},{"id":"2","title":"Solaris"}]`)
	})
	mux.HandleFunc("GET /api/v1/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"id":"1","title":"Dune","authors":["Frank Herbert"],"isbn":"9780441013593"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBooks_List(t *testing.T) {
	srv := newBooksServer(t)

	books, err := NewBooksAPI(srv.URL, srv.Client()).List(context.Background())

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, []string{"Frank Herbert"}, books[0].Authors)
	assert.Equal(t, "Solaris", books[1].Title)
}

func TestBooks_Get(t *testing.T) {
	srv := newBooksServer(t)

	book, err := NewBooksAPI(srv.URL, srv.Client()).Get(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "9780441013593", book.ISBN)
}

func TestBooks_NotFoundIsStatusError(t *testing.T) {
	srv := newBooksServer(t)

	_, err := NewBooksAPI(srv.URL, srv.Client()).Get(context.Background(), "42")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "book not found", se.Body)
}
