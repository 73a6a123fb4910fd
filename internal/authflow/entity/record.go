package entity

import "time"

// DefaultSessionTTL is how long a persisted session survives restarts.
const DefaultSessionTTL = 24 * time.Hour

// PersistedRecord is the snapshot stored under the "auth-storage" key.
// Timestamps are Unix milliseconds.
type PersistedRecord struct {
	Token           string `json:"token"`
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Timestamp       int64  `json:"timestamp"`
	ExpiresAt       int64  `json:"expiresAt"`
}

// NewPersistedRecord snapshots s at now with the given time to live.
func NewPersistedRecord(s Session, now time.Time, ttl time.Duration) PersistedRecord {
	return PersistedRecord{
		Token:           s.Token,
		User:            s.User.clone(),
		IsAuthenticated: s.IsAuthenticated,
		Timestamp:       now.UnixMilli(),
		ExpiresAt:       now.Add(ttl).UnixMilli(),
	}
}

// Malformed reports a record that decoded but cannot describe a session.
func (r PersistedRecord) Malformed() bool {
	if r.ExpiresAt <= 0 {
		return true
	}
	return r.IsAuthenticated && (r.Token == "" || r.User == nil)
}

// Expired reports whether now is at or past the expiry instant.
func (r PersistedRecord) Expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// TTL is the lifetime the record was written with.
func (r PersistedRecord) TTL() time.Duration {
	return time.Duration(r.ExpiresAt-r.Timestamp) * time.Millisecond
}

// Session restores the idle session described by the record.
func (r PersistedRecord) Session() Session {
	return Session{
		IsAuthenticated: r.IsAuthenticated,
		User:            r.User.clone(),
		Token:           r.Token,
	}
}
