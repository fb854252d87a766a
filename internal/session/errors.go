package session

import (
	"context"
	"errors"

	"github.com/templui/lanchat/internal/autherr"
)

// Kind is the user-facing category of a failed action.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindAccountNotFound
	KindRateLimited
	KindNetwork
	KindAccountDisabled
	KindInvalidEmail
	KindTimeout
	KindEmailInUse
	KindWeakPassword
	KindOperationNotAllowed
	KindCancelled
	KindPopupBlocked
	KindInvalidCode
	KindNoUser
	KindPersistence
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindInvalidCredentials:  "invalid_credentials",
	KindAccountNotFound:     "account_not_found",
	KindRateLimited:         "rate_limited",
	KindNetwork:             "network",
	KindAccountDisabled:     "account_disabled",
	KindInvalidEmail:        "invalid_email",
	KindTimeout:             "timeout",
	KindEmailInUse:          "email_in_use",
	KindWeakPassword:        "weak_password",
	KindOperationNotAllowed: "operation_not_allowed",
	KindCancelled:           "cancelled",
	KindPopupBlocked:        "popup_blocked",
	KindInvalidCode:         "invalid_code",
	KindNoUser:              "no_user",
	KindPersistence:         "persistence",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Operation names used in Error.Op and log records.
const (
	OpLoad          = "load"
	OpSignIn        = "sign_in"
	OpRegister      = "register"
	OpGoogle        = "google_sign_in"
	OpVerifyEmail   = "verify_email"
	OpResend        = "resend_verification"
	OpUpdateProfile = "update_profile"
	OpSignOut       = "sign_out"
)

// ErrTimeout is returned when a bounded store call does not settle in time.
var ErrTimeout = errors.New("operation timed out")

// Error is the failure of a Coordinator action. Error() is safe to show to
// the user; the cause is kept for logs and errors.Is.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return message(e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the category of err, or KindUnknown when err did not come
// from the Coordinator.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func fail(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}

	switch autherr.Code(err) {
	case autherr.InvalidCredential, autherr.WrongPassword:
		return KindInvalidCredentials
	case autherr.UserNotFound:
		return KindAccountNotFound
	case autherr.TooManyRequests:
		return KindRateLimited
	case autherr.NetworkFailed:
		return KindNetwork
	case autherr.UserDisabled:
		return KindAccountDisabled
	case autherr.InvalidEmail:
		return KindInvalidEmail
	case autherr.EmailAlreadyInUse:
		return KindEmailInUse
	case autherr.WeakPassword:
		return KindWeakPassword
	case autherr.OperationNotAllowed:
		return KindOperationNotAllowed
	case autherr.PopupClosedByUser:
		return KindCancelled
	case autherr.PopupBlocked:
		return KindPopupBlocked
	default:
		return KindUnknown
	}
}

func message(op string, kind Kind) string {
	switch kind {
	case KindTimeout:
		return "Login timed out or failed. Check your connection or try again."
	case KindInvalidCredentials:
		return "Invalid email or password. Please check your credentials."
	case KindAccountNotFound:
		return "No account found with this email. Please sign up first."
	case KindRateLimited:
		if op == OpGoogle {
			return "Too many requests. Please try again later."
		}
		return "Too many failed login attempts. Please try again later."
	case KindNetwork:
		return "Network error. Please check your internet connection."
	case KindAccountDisabled:
		return "This account has been disabled. Please contact support."
	case KindInvalidEmail:
		return "Invalid email address format."
	case KindEmailInUse:
		return "This email is already registered. Please sign in instead."
	case KindWeakPassword:
		return "Password is too weak. Please use at least 6 characters."
	case KindOperationNotAllowed:
		if op == OpGoogle {
			return "Google sign-in is not enabled. Please contact support."
		}
		return "Email/password authentication is not enabled. Please contact support."
	case KindCancelled:
		return "Sign-in cancelled. Please try again."
	case KindPopupBlocked:
		return "Popup was blocked. Please allow popups and try again."
	case KindInvalidCode:
		return "Invalid verification code"
	case KindNoUser:
		return "No user found"
	case KindPersistence:
		return "Could not save your session on this device. Please try again."
	}

	switch op {
	case OpRegister:
		return "Registration failed. Please try again."
	case OpGoogle:
		return "Google sign-in failed. Please try again."
	case OpSignOut:
		return "Sign out failed. Please try again."
	case OpUpdateProfile:
		return "Profile update failed. Please try again."
	case OpResend:
		return "Could not resend the verification code. Please try again."
	case OpVerifyEmail:
		return "Verification failed. Please try again."
	default:
		return "Login failed. Please try again."
	}
}
