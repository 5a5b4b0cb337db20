package session

// Session describes the visitor's authentication state as reported by
// the external identity provider. The zero value is the anonymous
// session.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Anonymous returns the signed-out session.
func Anonymous() Session {
	return Session{}
}
