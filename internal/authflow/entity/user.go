package entity

// User is the account identity returned by the remote service.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
