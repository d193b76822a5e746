package users

import "time"

// User models an account in the back office. Sellers are users with
// role "seller"; they can be assigned sales orders and appear in
// per-seller reports.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
