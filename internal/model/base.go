package model

import "github.com/google/uuid"

// assignID gives a new row its primary key before insert. The database
// default is not relied upon so every dialect behaves the same.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
