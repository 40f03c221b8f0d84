package order

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrOrderCodeTaken  = errors.New("order code already used today")
)
