package db

import "database/sql"

// ProfileKV exposes one profile's rows as a prefs.KV.
type ProfileKV struct {
	db        *sql.DB
	profileID string
}

// NewProfileKV scopes the kv table to profileID.
func NewProfileKV(db *sql.DB, profileID string) *ProfileKV {
	return &ProfileKV{db: db, profileID: profileID}
}

// Get implements prefs.KV.
func (k *ProfileKV) Get(key string) (string, bool, error) {
	return GetValue(k.db, k.profileID, key)
}

// Set implements prefs.KV.
func (k *ProfileKV) Set(key, value string) error {
	return SetValue(k.db, k.profileID, key, value)
}

// Delete implements prefs.KV.
func (k *ProfileKV) Delete(key string) error {
	return DeleteValue(k.db, k.profileID, key)
}
