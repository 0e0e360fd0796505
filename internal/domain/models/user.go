package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the credential record for an account.
//
// Sensitive fields (password hash, refresh token, one-shot token state) are
// excluded from JSON so a User can be returned from handlers directly.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username        string             `bson:"username" json:"username"`
	Email           string             `bson:"email" json:"email"`
	FullName        string             `bson:"full_name,omitempty" json:"fullName,omitempty"`
	AvatarURL       string             `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	PasswordHash    string             `bson:"password" json:"-"`
	IsEmailVerified bool               `bson:"is_email_verified" json:"isEmailVerified"`

	// Single active refresh token; a presented refresh token that does not
	// match this value is treated as reuse.
	RefreshToken string `bson:"refresh_token,omitempty" json:"-"`

	// One-shot token state. Only the SHA-256 hash is ever stored; the plain
	// value goes out in the email link.
	EmailVerificationToken  string     `bson:"email_verification_token,omitempty" json:"-"`
	EmailVerificationExpiry *time.Time `bson:"email_verification_expiry,omitempty" json:"-"`
	ForgotPasswordToken     string     `bson:"forgot_password_token,omitempty" json:"-"`
	ForgotPasswordExpiry    *time.Time `bson:"forgot_password_expiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
