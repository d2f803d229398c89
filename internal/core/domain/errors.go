package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Eligibility errors. Each is the first failing reason returned by the
// eligibility check, in check order. All are user-correctable.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrVotingNotActive  = errors.New("voting is not active for this category")
	ErrVotingNotStarted = errors.New("voting has not started for this category")
	ErrVotingEnded      = errors.New("voting has ended for this category")
	ErrAlreadyVoted     = errors.New("user has already voted in this category")
	ErrUserInactive     = errors.New("user account is inactive")
	ErrRoleCannotVote   = errors.New("user role cannot vote")
)

// Payment and ledger errors
var (
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrReferenceNotFound   = errors.New("transaction reference not found")
	ErrPaymentNotConfirmed = errors.New("payment transaction is not confirmed")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPaymentExpired      = errors.New("payment expired")
	ErrDuplicateVote       = errors.New("vote already recorded for this user and category")
	ErrMetadataMismatch    = errors.New("payment metadata does not match vote intent")
	ErrCommitRejected      = errors.New("vote could not be committed after payment")
)

// Nominee errors
var (
	ErrNomineeNotFound      = errors.New("nominee not found")
	ErrNomineeNotApproved   = errors.New("nominee is not approved for voting")
	ErrNomineeWrongCategory = errors.New("nominee does not belong to this category")
)
