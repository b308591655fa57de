// Package models defines the core domain models for the NutriMed backend.
//
// # Models
//
//   - User: a registered account, identified by a normalized email.
//   - Analysis: a saved nutrition report. Exactly one owner, set at creation.
//
// # Ownership
//
// Analyses reference their owner by ID string rather than by pointer. Every
// read and write of an Analysis is scoped by OwnerID; a record that exists
// but belongs to someone else is indistinguishable from one that does not
// exist.
package models
