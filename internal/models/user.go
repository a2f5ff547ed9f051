// Package models contains the typed domain records shared by the session
// store, repositories and view-models. Untyped backend payloads are coerced
// into these shapes at the repository boundary and never travel further.
package models

// User is the authenticated principal held by the session store.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}
