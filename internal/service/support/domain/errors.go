package domain

import "bazaar/internal/pkg/apperr"

var (
	ErrContactNotFound      = apperr.New(apperr.ErrNotFound, "contact_not_found", "contact message not found")
	ErrConversationNotFound = apperr.New(apperr.ErrNotFound, "conversation_not_found", "conversation not found")

	ErrStateChanged       = apperr.New(apperr.ErrInvalidTransition, "state_changed", "the record was modified by another request, reload and try again")
	ErrContactClosed      = apperr.New(apperr.ErrInvalidTransition, "contact_closed", "this contact message is already closed")
	ErrConversationClosed = apperr.New(apperr.ErrInvalidTransition, "conversation_closed", "this conversation is closed")

	ErrInvalidContact = apperr.Validation("invalid_contact", "name, a valid email and a message are required")
	ErrEmptyReply     = apperr.Validation("empty_reply", "reply cannot be empty")
	ErrEmptyMessage   = apperr.Validation("empty_message", "message cannot be empty")
	ErrMessageTooLong = apperr.Validation("message_too_long", "message is too long")
	ErrInvalidStatus  = apperr.Validation("invalid_status", "unknown status")
)
