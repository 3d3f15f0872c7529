package mediaurl

import "strings"

const usersPath = "/api/v1/users/"

// Avatar returns the public avatar URL for userID. An empty baseURL yields a
// host-relative path.
func Avatar(baseURL, userID string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return baseURL + usersPath + userID + "/avatar"
}
