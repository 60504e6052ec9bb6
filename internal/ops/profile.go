package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/attune/internal/db"
	"github.com/hpungsan/attune/internal/errors"
)

// CreateProfileOutput contains the result of the CreateProfile operation.
type CreateProfileOutput struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// CreateProfile registers a new visitor profile with default preferences.
func (s *Service) CreateProfile() (*CreateProfileOutput, error) {
	id, err := newProfileID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	if err := db.InsertProfile(s.db, &db.Profile{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, err
	}

	s.log.Debug("profile created")
	return &CreateProfileOutput{ID: id, CreatedAt: now}, nil
}

// GetProfileOutput is a profile row plus the raw values persisted for it.
type GetProfileOutput struct {
	db.Profile
	Values map[string]string `json:"values"`
}

// GetProfile returns the stored record of a profile, bypassing any live
// session.
func (s *Service) GetProfile(profileID string) (*GetProfileOutput, error) {
	id := strings.TrimSpace(profileID)
	if id == "" {
		return nil, errors.NewInvalidRequest("profile_id is required")
	}

	p, err := db.GetProfile(s.db, id)
	if err != nil {
		return nil, err
	}
	values, err := db.ListValues(s.db, id)
	if err != nil {
		return nil, err
	}
	return &GetProfileOutput{Profile: *p, Values: values}, nil
}

// ListProfilesInput contains parameters for the ListProfiles operation.
type ListProfilesInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// ListProfilesOutput contains the result of the ListProfiles operation.
type ListProfilesOutput struct {
	Items      []db.Profile `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// ListProfiles returns profiles, most recently updated first.
func (s *Service) ListProfiles(input ListProfilesInput) (*ListProfilesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	items, err := db.ListProfiles(s.db, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountProfiles(s.db)
	if err != nil {
		return nil, err
	}

	return &ListProfilesOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// DeleteProfileOutput contains the result of the DeleteProfile operation.
type DeleteProfileOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteProfile cancels the profile's session and removes its stored values.
func (s *Service) DeleteProfile(profileID string) (*DeleteProfileOutput, error) {
	_, id, err := s.session(profileID)
	if err != nil {
		return nil, err
	}

	s.drop(id)
	if err := db.DeleteProfile(s.db, id); err != nil {
		return nil, err
	}
	return &DeleteProfileOutput{ID: id, Deleted: true}, nil
}
