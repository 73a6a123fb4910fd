package entity

// Session is the in-memory authentication state observed by the front-end.
//
// An empty Token or a nil User means "not set".
type Session struct {
	IsAuthenticated bool
	User            *User
	Token           string
	IsLoading       bool
	Error           string
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	s.User = s.User.clone()
	return s
}

// Persistable reports whether the session may be written to durable storage.
func (s Session) Persistable() bool {
	return s.IsAuthenticated && s.Token != "" && s.User != nil
}

// Valid reports whether the authenticated flag is backed by a token and a user.
func (s Session) Valid() bool {
	return !s.IsAuthenticated || (s.Token != "" && s.User != nil)
}
