package api

// TokenSource yields the current bearer token, or an empty string when the
// session is anonymous. The session manager implements it; transports
// consult it on every request unless the caller overrides the header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, mainly useful in tests.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
