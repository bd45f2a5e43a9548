// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its entity
// with ToDomain and FromDomain.
//
// The schema of record is the versioned SQL under migration/migrations. The
// gorm tags here mirror it so tests can AutoMigrate an in-memory SQLite store.
package models
