package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is a user's self-hosted WordPress site and the application password
// used to publish to it. Credentials are read-only borrowed values for the
// publishing layer; only the REST surface mutates them.
type Site struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"user_id"`
	Name                string    `db:"name" json:"name"`
	URL                 string    `db:"url" json:"url"`
	Username            string    `db:"username" json:"username"`
	ApplicationPassword string    `db:"application_password" json:"-"`
	Enabled             bool      `db:"enabled" json:"enabled"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// SiteCreateRequest is the payload for creating a site.
type SiteCreateRequest struct {
	UserID              string `json:"user_id" binding:"required"`
	Name                string `json:"name" binding:"required"`
	URL                 string `json:"url" binding:"required"`
	Username            string `json:"username" binding:"required"`
	ApplicationPassword string `json:"application_password" binding:"required"`
	Enabled             *bool  `json:"enabled,omitempty"`
}

// SiteUpdateRequest is the payload for updating a site. Nil fields are left
// unchanged.
type SiteUpdateRequest struct {
	Name                *string `json:"name,omitempty"`
	URL                 *string `json:"url,omitempty"`
	Username            *string `json:"username,omitempty"`
	ApplicationPassword *string `json:"application_password,omitempty"`
	Enabled             *bool   `json:"enabled,omitempty"`
}
