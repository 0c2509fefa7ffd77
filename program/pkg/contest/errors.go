package contest

import (
	"errors"
	"fmt"

	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// Kind groups program errors by how a caller should react to them.
type Kind string

const (
	// KindState is a timing, capacity or lifecycle precondition failure.
	KindState Kind = "state"
	// KindAuthorization is an identity mismatch.
	KindAuthorization Kind = "authorization"
	// KindAllocation is a record that already exists at its derived address.
	KindAllocation Kind = "allocation"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindFunds      Kind = "funds"
)

// Error is a typed program failure. Every failed invocation commits nothing.
type Error struct {
	Code string
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.msg
}

func newError(code string, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

var (
	ErrContestNotActive          = newError("ContestNotActive", KindState, "contest is not active")
	ErrContestNotStarted         = newError("ContestNotStarted", KindState, "contest has not started")
	ErrContestEnded              = newError("ContestEnded", KindState, "contest has ended")
	ErrContestFull               = newError("ContestFull", KindState, "contest is full")
	ErrContestStillActive        = newError("ContestStillActive", KindState, "contest has not ended yet")
	ErrRewardsAlreadyDistributed = newError("RewardsAlreadyDistributed", KindState, "rewards already distributed")
	ErrNotEnoughParticipants     = newError("NotEnoughParticipants", KindState, "not enough participants")
	ErrQuorumReached             = newError("QuorumReached", KindState, "contest reached quorum, stakes are not refundable")
	ErrAlreadyRefunded           = newError("AlreadyRefunded", KindState, "stake already refunded")
	ErrDuplicateInvocation       = newError("DuplicateInvocation", KindState, "invocation already processed")
	ErrInvocationExpired         = newError("InvocationExpired", KindState, "invocation expired")

	ErrUnauthorized = newError("Unauthorized", KindAuthorization, "caller is not the contest authority")

	ErrAccountAlreadyExists = newError("AccountAlreadyExists", KindAllocation, "account already exists")
	ErrAccountNotFound      = newError("AccountNotFound", KindNotFound, "account not found")

	ErrInvalidParameters    = newError("InvalidParameters", KindValidation, "invalid parameters")
	ErrInvalidAccount       = newError("InvalidAccount", KindValidation, "invalid account")
	ErrWinnerNotParticipant = newError("WinnerNotParticipant", KindValidation, "winner did not join the contest")

	ErrInsufficientFunds  = newError("InsufficientFunds", KindFunds, "insufficient funds")
	ErrArithmeticOverflow = newError("ArithmeticOverflow", KindFunds, "arithmetic overflow")
)

// AsError returns the program error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// failf attaches detail to a program error while keeping errors.Is intact.
func failf(e *Error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{e}, args...)...)
}

// translate maps ledger and runtime failures onto program errors. Anything
// it does not recognize is returned unchanged as an infrastructure error.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ledger.ErrAccountExists):
		return fmt.Errorf("%w: %w", ErrAccountAlreadyExists, err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fmt.Errorf("%w: %w", ErrAccountNotFound, err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return fmt.Errorf("%w: %w", ErrArithmeticOverflow, err)
	case errors.Is(err, ledger.ErrDuplicateSignature):
		return fmt.Errorf("%w: %w", ErrDuplicateInvocation, err)
	case errors.Is(err, runtime.ErrMissingSignature):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, runtime.ErrNotProgramOwned),
		errors.Is(err, address.ErrAddressMismatch),
		errors.Is(err, state.ErrInvalidDiscriminator):
		return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	case errors.Is(err, state.ErrNameTooLong):
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return err
}
