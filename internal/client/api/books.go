package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const BooksPath = "/api/v1/books"

// Book is a catalogue entry as returned by the server.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	Description string   `json:"description,omitempty"`
	Published   string   `json:"published,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
}

// BooksAPI reads the catalogue through an authenticated client.
type BooksAPI struct {
	baseURL string
	client  *http.Client
}

func NewBooksAPI(baseURL string, client *http.Client) *BooksAPI {
	return &BooksAPI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// List returns every book visible to the current account.
func (b *BooksAPI) List(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := b.get(ctx, BooksPath, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Get returns a single book by id.
func (b *BooksAPI) Get(ctx context.Context, id string) (*Book, error) {
	var book Book
	if err := b.get(ctx, BooksPath+"/"+url.PathEscape(id), &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *BooksAPI) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
