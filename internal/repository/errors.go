package repository

import "errors"

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// query for a single entity (e.g. GetConversation) finds no rows.
//
// The service layer checks for this error and translates it into a
// domain-level error, decoupling business logic from the data access
// implementation and the driver's sql.ErrNoRows.
var ErrNotFound = errors.New("repository: not found")
