package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID       string
	Name     string
	Email    string
	Avatar   string
	Status   Status
	LastSeen time.Time
	Role     Role
}

func NewUser(id, name, email string, role Role) *User {
	return &User{
		ID:     id,
		Name:   name,
		Email:  email,
		Status: StatusOffline,
		Role:   role,
	}
}

// FirstName returns the leading name component, used for message previews
// ("You: ..." vs "Sarah: ...").
func (u *User) FirstName() string {
	if u == nil {
		return ""
	}
	for i := 0; i < len(u.Name); i++ {
		if u.Name[i] == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}
