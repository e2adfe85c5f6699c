package domain

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")

	// ErrNotSender is returned when someone other than the author tries to
	// edit or delete a message.
	ErrNotSender           = errors.New("not the message sender")
	ErrEditWindowExpired   = errors.New("edit window expired")
	ErrDeleteWindowExpired = errors.New("delete window expired")

	ErrNotGroup       = errors.New("conversation is not a group")
	ErrNotParticipant = errors.New("user is not a participant")
	ErrInvalidDraft   = errors.New("invalid message draft")
	ErrInvalidStatus  = errors.New("invalid presence status")
)
