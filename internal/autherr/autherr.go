// Package autherr carries the stable failure codes shared by the account
// store and federated identity providers.
package autherr

import (
	"errors"
	"fmt"
)

const (
	InvalidCredential   = "auth/invalid-credential"
	WrongPassword       = "auth/wrong-password"
	UserNotFound        = "auth/user-not-found"
	TooManyRequests     = "auth/too-many-requests"
	NetworkFailed       = "auth/network-request-failed"
	UserDisabled        = "auth/user-disabled"
	InvalidEmail        = "auth/invalid-email"
	EmailAlreadyInUse   = "auth/email-already-in-use"
	WeakPassword        = "auth/weak-password"
	PopupClosedByUser   = "auth/popup-closed-by-user"
	PopupBlocked        = "auth/popup-blocked"
	OperationNotAllowed = "auth/operation-not-allowed"
	InvalidIDToken      = "auth/invalid-id-token"
)

// Error is a coded failure from an identity backend.
type Error struct {
	Code string
	Err  error
}

func New(code string) *Error {
	return &Error{Code: code}
}

func Wrap(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, autherr.New(code))
// works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Code returns the code of the first *Error in err's chain, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
