package models

// RoleViewer users can read monitors and alerts; admins manage them.
const RoleViewer = "viewer"
const RoleAdmin = "admin"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	WebhookURL   string `json:"webhook_url,omitempty"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
