package userstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/taskcamp/taskcamp/internal/app/system/normalize"
	"github.com/taskcamp/taskcamp/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicate is returned when the email or username is already taken.
	ErrDuplicate = errors.New("a user with this email or username already exists")

	// ErrTokenReused is returned by RotateRefreshToken when the presented
	// refresh token does not match the stored one. Either the token was
	// already rotated (replay) or the session was revoked.
	ErrTokenReused = errors.New("refresh token is expired or used")
)

// Create inserts a new user after normalizing identifiers and hashing the
// password. The account starts unverified.
func (s *Store) Create(ctx context.Context, email, username, fullName, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(email),
		Username:     normalize.Username(username),
		FullName:     normalize.Name(fullName),
		PasswordHash: string(hash),
		AvatarURL:    defaultAvatarURL(normalize.Username(username)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// defaultAvatarURL derives an initials avatar for accounts that have not
// uploaded one.
func defaultAvatarURL(username string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s", url.QueryEscape(username))
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByLogin looks a user up by email or username, whichever is provided.
// Returns mongo.ErrNoDocuments if neither matches.
func (s *Store) FindByLogin(ctx context.Context, email, username string) (*models.User, error) {
	var ors []bson.M
	if email != "" {
		ors = append(ors, bson.M{"email": normalize.Email(email)})
	}
	if username != "" {
		ors = append(ors, bson.M{"username": normalize.Username(username)})
	}
	if len(ors) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"$or": ors}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetRefreshToken stores the single active refresh token for the user.
// Issuing a new session invalidates any previous one.
func (s *Store) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"refresh_token": token,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// ClearRefreshToken removes the stored refresh token, ending the session.
func (s *Store) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"refresh_token": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RotateRefreshToken atomically replaces the stored refresh token, but only
// if the presented token is still the stored one. The filter-and-update is a
// single FindOneAndUpdate so two concurrent rotations of the same token
// cannot both succeed.
func (s *Store) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error {
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "refresh_token": presented},
		bson.M{"$set": bson.M{
			"refresh_token": next,
			"updated_at":    time.Now().UTC(),
		}},
	).Err()
	if err == mongo.ErrNoDocuments {
		return ErrTokenReused
	}
	return err
}

// SetEmailVerificationToken stores the hashed one-shot verification token
// and its expiry.
func (s *Store) SetEmailVerificationToken(ctx context.Context, id primitive.ObjectID, hashed string, expiry time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"email_verification_token":  hashed,
		"email_verification_expiry": expiry,
		"updated_at":                time.Now().UTC(),
	}})
	return err
}

// ConsumeEmailVerification marks the account verified and clears the token,
// but only when the hashed token matches and has not expired. The match and
// clear are one FindOneAndUpdate so the token is single use.
// Returns mongo.ErrNoDocuments when the token is unknown or expired.
func (s *Store) ConsumeEmailVerification(ctx context.Context, hashed string) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"email_verification_token":  hashed,
			"email_verification_expiry": bson.M{"$gt": time.Now().UTC()},
		},
		bson.M{
			"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"email_verification_token": "", "email_verification_expiry": ""},
		},
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetForgotPasswordToken stores the hashed one-shot reset token and its expiry.
func (s *Store) SetForgotPasswordToken(ctx context.Context, id primitive.ObjectID, hashed string, expiry time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"forgot_password_token":  hashed,
		"forgot_password_expiry": expiry,
		"updated_at":             time.Now().UTC(),
	}})
	return err
}

// ResetPasswordWithToken sets a new password hash and clears the reset token,
// but only when the hashed token matches and has not expired. The stored
// refresh token is also cleared so existing sessions cannot outlive a reset.
// Returns mongo.ErrNoDocuments when the token is unknown or expired.
func (s *Store) ResetPasswordWithToken(ctx context.Context, hashed, newPassword string) error {
	pwHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.c.FindOneAndUpdate(ctx,
		bson.M{
			"forgot_password_token":  hashed,
			"forgot_password_expiry": bson.M{"$gt": time.Now().UTC()},
		},
		bson.M{
			"$set": bson.M{"password": string(pwHash), "updated_at": time.Now().UTC()},
			"$unset": bson.M{
				"forgot_password_token":  "",
				"forgot_password_expiry": "",
				"refresh_token":          "",
			},
		},
	).Err()
}

// UpdatePassword replaces the password hash for an authenticated change.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, newPassword string) error {
	pwHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password":   string(pwHash),
		"updated_at": time.Now().UTC(),
	}})
	return err
}
