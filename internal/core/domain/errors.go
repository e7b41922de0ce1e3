package domain

import "errors"

var (
	ErrRateExceeded = errors.New("rate limit exceeded")
	ErrStoreFailure = errors.New("rate limit store failure")
	ErrInvalidRule  = errors.New("invalid rate limit rule")
)

func IsRateExceeded(err error) bool {
	return errors.Is(err, ErrRateExceeded)
}

func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}

func IsInvalidRule(err error) bool {
	return errors.Is(err, ErrInvalidRule)
}
