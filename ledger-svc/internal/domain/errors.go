package domain

import "errors"

var (
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
	ErrInvalidMessage = errors.New("payment message is missing order code or date")
)
