package models

import "github.com/google/uuid"

// assignID fills an empty primary key before insert. Postgres would default
// it, but callers need the id back without RETURNING support everywhere.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
