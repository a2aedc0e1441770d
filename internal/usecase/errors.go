package usecase

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTradeState   = errors.New("invalid trade state")
	ErrUserNotFound        = errors.New("user not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrSkillNotFound       = errors.New("skill not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInternal            = errors.New("internal error")
)
