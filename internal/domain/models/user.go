package models

import "time"

// RoleUser is the ordinary account role. Roles are free-form strings.
const RoleUser = "user"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullname"`
	Email           string     `json:"email"`
	BirthDate       string     `json:"datebirthday"`
	Gender          string     `json:"gender"`
	LinkPhoto       *string    `json:"linkphoto"`
	Role            string     `json:"role"`
	PassHash        []byte     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UserPatch holds the profile fields present in an update request.
type UserPatch struct {
	FullName  *string
	Email     *string
	BirthDate *string
	Gender    *string
	LinkPhoto *string
}

func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.BirthDate != nil {
		u.BirthDate = *p.BirthDate
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.LinkPhoto != nil {
		u.LinkPhoto = emptyToNil(p.LinkPhoto)
	}
}

// emptyToNil clears an optional link when the client sends an empty string.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
