package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/attune/internal/errors"
)

// Profile is one visitor's storage namespace.
type Profile struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.AttuneError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// InsertProfile creates a new profile row.
func InsertProfile(db *sql.DB, p *Profile) error {
	query := `INSERT INTO profiles (id, created_at, updated_at) VALUES (?, ?, ?)`

	if _, err := db.Exec(query, p.ID, p.CreatedAt, p.UpdatedAt); err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetProfile retrieves a profile by id.
func GetProfile(db *sql.DB, id string) (*Profile, error) {
	query := `SELECT id, created_at, updated_at FROM profiles WHERE id = ?`

	var p Profile
	err := db.QueryRow(query, id).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &p, nil
}

// ListProfiles returns profiles, most recently updated first.
func ListProfiles(db *sql.DB, limit, offset int) ([]Profile, error) {
	query := `
		SELECT id, created_at, updated_at
		FROM profiles
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return profiles, nil
}

// CountProfiles returns the total number of profiles.
func CountProfiles(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// DeleteProfile removes a profile and every value stored under it.
func DeleteProfile(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM kv WHERE profile_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}

	result, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetValue returns the value stored under key for a profile.
// ok is false when the key is absent.
func GetValue(db *sql.DB, profileID, key string) (value string, ok bool, err error) {
	query := `SELECT value FROM kv WHERE profile_id = ? AND key = ?`

	err = db.QueryRow(query, profileID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// SetValue upserts a value and bumps the profile's updated_at.
func SetValue(db *sql.DB, profileID, key, value string) error {
	now := time.Now().Unix()

	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO kv (profile_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile_id, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, profileID, key, value, now); err != nil {
		return errors.NewInternal(err)
	}
	if err := touchProfile(tx, profileID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteValue removes key for a profile. Deleting an absent key is not an error.
func DeleteValue(db *sql.DB, profileID, key string) error {
	now := time.Now().Unix()

	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM kv WHERE profile_id = ? AND key = ?`, profileID, key); err != nil {
		return errors.NewInternal(err)
	}
	if err := touchProfile(tx, profileID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListValues returns every key/value stored for a profile.
func ListValues(db *sql.DB, profileID string) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM kv WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.NewInternal(err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return values, nil
}

func touchProfile(tx *sql.Tx, profileID string, now int64) error {
	if _, err := tx.Exec(`UPDATE profiles SET updated_at = ? WHERE id = ?`, now, profileID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
