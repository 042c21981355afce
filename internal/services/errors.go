package services

import "errors"

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrReminderNotFound      = errors.New("reminder not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrInvalidRange          = errors.New("invalid date range")
	ErrInvalidTitle          = errors.New("title is required")
	ErrReminderInPast        = errors.New("reminder date is in the past")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserInactive          = errors.New("user inactive")
)
