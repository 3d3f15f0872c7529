package api

import (
	"taskmanager/internal/mediaurl"
	"taskmanager/internal/models"
)

// presentUser fills the fields of u that are derived rather than stored.
func presentUser(baseURL string, u *models.User) *models.User {
	if u == nil || !u.HasAvatar {
		return u
	}
	out := *u
	out.AvatarURL = mediaurl.Avatar(baseURL, u.ID)
	return &out
}
