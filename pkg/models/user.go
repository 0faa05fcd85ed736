package models

// User is the profile returned by the identity provider's userinfo endpoint.
// It is replaced wholesale on every fetch.
type User struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name,omitempty"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Sub           string `json:"sub"`
}
