package model

import "time"

// Roles carried in the users.role column and the JWT "role" claim.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the service layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  FullName     – display name.
//  PhoneNumber  – optional phone number.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    `json:"id"`           // users.id
    Email        string    `json:"email"`        // users.email
    PasswordHash string    `json:"-"`            // users.password_hash
    Role         string    `json:"role"`         // users.role
    FullName     string    `json:"full_name"`    // users.full_name
    PhoneNumber  *string   `json:"phone_number"` // users.phone_number (nullable)
    IsActive     bool      `json:"is_active"`    // users.is_active
    CreatedAt    time.Time `json:"created_at"`   // users.created_at
    UpdatedAt    time.Time `json:"updated_at"`   // users.updated_at
}

// Principal is the authenticated caller of a request, as decoded
// from the access token.
type Principal struct {
    ID   uint64
    Role string
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
