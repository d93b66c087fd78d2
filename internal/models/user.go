package models

type UserType string

const (
	UserTypeRenter UserType = "renter"
	UserTypeOwner  UserType = "owner"
	UserTypeBoth   UserType = "both"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeRenter, UserTypeOwner, UserTypeBoth:
		return true
	}
	return false
}

type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	UserType     UserType `json:"user_type"`
	Phone        string   `json:"phone,omitempty"`
	Rating       *Decimal `json:"rating,omitempty"`
	ReviewsCount *int     `json:"reviews_count,omitempty"`
}

// Complete reports whether the record carries enough to act as an identity.
func (u User) Complete() bool {
	return u.ID > 0 && u.Email != ""
}

// Session pairs a bearer token with the user it authorizes.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone,omitempty"`
	UserType UserType `json:"user_type"`
}

// AuthResult is what login and register hand back on success.
type AuthResult struct {
	User  User
	Token string
}
