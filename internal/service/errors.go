package service

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrJobNotFound          = errors.New("job not found")
)
