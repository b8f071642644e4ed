package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every service error wraps exactly one of these so the
// transport layer can map it to a status without inspecting strings.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("requested resource not found")
	ErrStateConflict     = errors.New("operation conflicts with current entity state")
	ErrInsufficientFunds = errors.New("insufficient points balance")
	ErrAlreadyProcessed  = errors.New("operation was already processed")
	ErrForbidden         = errors.New("operation not allowed for the current user")
	ErrUnauthorized      = errors.New("authentication required")
)

// Specific errors, each carrying its kind.
var (
	// Ledger
	ErrEscrowConflict = fmt.Errorf("%w: escrow is no longer reserved", ErrStateConflict)
	ErrNoEscrows      = fmt.Errorf("%w: no escrows recorded for game", ErrNotFound)

	// Lobby
	ErrGameNotJoinable   = fmt.Errorf("%w: game is not open for joining", ErrStateConflict)
	ErrAlreadyInGame     = fmt.Errorf("%w: user already joined this game", ErrStateConflict)
	ErrTeamFull          = fmt.Errorf("%w: team slot already taken", ErrStateConflict)
	ErrGameNotLive       = fmt.Errorf("%w: game is not in progress", ErrStateConflict)
	ErrGameNotCancelable = fmt.Errorf("%w: game can no longer be cancelled", ErrStateConflict)

	// Tournaments
	ErrRegistrationClosed = fmt.Errorf("%w: tournament registration is closed", ErrStateConflict)
	ErrTournamentFull     = fmt.Errorf("%w: tournament registration is full", ErrStateConflict)
	ErrAlreadyRegistered  = fmt.Errorf("%w: user is already registered for this tournament", ErrStateConflict)
	ErrBracketExists      = fmt.Errorf("%w: bracket was already generated", ErrStateConflict)
	ErrRoundIncomplete    = fmt.Errorf("%w: round still has unverified matches", ErrStateConflict)

	// Matches
	ErrByeMatch       = fmt.Errorf("%w: bye matches do not accept evidence", ErrStateConflict)
	ErrMatchVerified  = fmt.Errorf("%w: match is already verified", ErrStateConflict)
	ErrNotParticipant = fmt.Errorf("%w: user is not a participant in this match", ErrForbidden)

	// Auth
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email address is already in use", ErrStateConflict)
	ErrPasswordTooShort   = fmt.Errorf("%w: password is too short", ErrValidation)
)
