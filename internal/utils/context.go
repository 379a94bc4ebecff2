package utils

import "context"

// Session is the caller identity carried on an authenticated request. Role is
// the raw claim; callers parse it.
type Session struct {
	UserID string
	Role   string
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the request session; ok is false when the request is
// anonymous.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}
