package domain

import "time"

// User is a directory profile for an authenticated subject. Authentication
// itself happens outside this service; the directory only enriches ID
// tokens and the userinfo response.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"email_verified,omitempty"`
	Name          string    `json:"name,omitempty"`
	Role          string    `json:"role,omitempty"`
	TenantID      string    `json:"tenant_id,omitempty"`
	Department    string    `json:"department,omitempty"`
	Organization  string    `json:"organization,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
