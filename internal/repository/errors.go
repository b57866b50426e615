// Package repository implements the MySQL persistence layer.  Domain
// failure sentinels live in the model package; repositories translate
// driver-level conditions (sql.ErrNoRows, duplicate-key violations)
// into those sentinels so handlers and services never see raw driver
// errors.
package repository

import (
	"database/sql"
	"errors"
	"strings"
)

// ErrEmailExists is returned by UserRepo.Create when the normalized
// email is already registered.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// mapNoRows substitutes a domain sentinel for sql.ErrNoRows and
// passes every other error through.
func mapNoRows(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
