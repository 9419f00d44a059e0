package domain

import "errors"

var (
	ErrJobNotFound   = errors.New("generation job not found")
	ErrJobTerminal   = errors.New("generation job already finished")
	ErrInvalidParams = errors.New("invalid generation parameters")
)
