package service

import (
	"go-invoice-ws/internal/events"

	"github.com/google/uuid"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

func (a Actor) eventUser() events.User {
	return events.User{ID: a.ID.String(), Name: a.Name, Email: a.Email}
}
