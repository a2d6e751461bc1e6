// Package cli is the interactive bookshelf client.
//
// NewApp opens the token store, restores the saved session for the
// configured server and builds an HTTP client whose transport authenticates
// every request. App.Run then reads commands until the user exits:
//
//	login      email and password prompt; the pair is kept for re-login
//	status     local view of the session (no network)
//	books      list the catalogue
//	book <id>  show one entry
//	logout     drop tokens locally and in the store
//
// Protected commands never ask for a login themselves: the transport
// refreshes or logs in again with the stored credentials when it must, and
// only surfaces an error when neither is possible.
package cli
