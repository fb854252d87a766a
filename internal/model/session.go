package model

// State is the externally observed phase of a Session.
type State string

const (
	StateUninitialized     State = "UNINITIALIZED"
	StateLoading           State = "LOADING"
	StateUnauthenticated   State = "UNAUTHENTICATED"
	StateNeedsVerification State = "NEEDS_VERIFICATION"
	StateNeedsProfileSetup State = "NEEDS_PROFILE_SETUP"
	StateAuthenticated     State = "AUTHENTICATED"
)

// Session is the in-memory authentication and setup status of the current
// user.
type Session struct {
	User                   *Profile
	IsAuthenticated        bool
	IsLoading              bool
	NeedsProfileSetup      bool
	NeedsEmailVerification bool
	VerificationEmail      string
}

// State derives the phase. Email verification outranks everything else, and
// profile setup only applies to an authenticated session.
func (s Session) State() State {
	switch {
	case s.IsLoading:
		return StateLoading
	case s.NeedsEmailVerification:
		return StateNeedsVerification
	case !s.IsAuthenticated:
		return StateUnauthenticated
	case s.NeedsProfileSetup:
		return StateNeedsProfileSetup
	default:
		return StateAuthenticated
	}
}

// Clone deep-copies the session, including its profile.
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

// Snapshot is the persisted form of a Session.
type Snapshot struct {
	User                   *Profile `json:"user"`
	IsAuthenticated        bool     `json:"isAuthenticated"`
	NeedsProfileSetup      bool     `json:"needsProfileSetup"`
	NeedsEmailVerification bool     `json:"needsEmailVerification"`
	VerificationEmail      string   `json:"verificationEmail,omitempty"`
}

func (s Session) Snapshot() Snapshot {
	return Snapshot{
		User:                   s.User.Clone(),
		IsAuthenticated:        s.IsAuthenticated,
		NeedsProfileSetup:      s.NeedsProfileSetup,
		NeedsEmailVerification: s.NeedsEmailVerification,
		VerificationEmail:      s.VerificationEmail,
	}
}

// Session restores a loaded (non-loading) Session from the snapshot.
func (s Snapshot) Session() Session {
	return Session{
		User:                   s.User.Clone(),
		IsAuthenticated:        s.IsAuthenticated,
		NeedsProfileSetup:      s.NeedsProfileSetup,
		NeedsEmailVerification: s.NeedsEmailVerification,
		VerificationEmail:      s.VerificationEmail,
	}
}
