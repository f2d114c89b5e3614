package user

import (
	"time"

	"github.com/google/uuid"

	"skill-journal/internal/docstore"
)

// ProfilesCollection mirrors every account as users/<id> in the document store.
const ProfilesCollection = "users"

type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	ProviderGitHub   Provider = "github"
)

type User struct {
	ID              uuid.UUID
	Email           string
	Name            string
	PasswordHash    string
	Provider        Provider
	ProviderSubject string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileFields is the public profile document of u.
func ProfileFields(u User) docstore.Fields {
	return docstore.Fields{
		"uid":       u.ID.String(),
		"email":     u.Email,
		"name":      u.Name,
		"provider":  string(u.Provider),
		"createdAt": docstore.ServerTimestamp,
	}
}
