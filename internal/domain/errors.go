package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica un Error para loguear y para mostrar.
type Kind int

const (
	// se muestran tal cual, nunca son incidentes
	KindUser Kind = iota + 1
	// lo guardado y Discord no coinciden
	KindIntegrity
	// se loguean y se tragan
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindIntegrity:
		return "integrity"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is compara por Code, así los armados desde ErrInvalidOption siguen
// cumpliendo errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrAlreadyQueued = &Error{KindUser, "already_queued", "You are already in this queue."}
	ErrNotQueued     = &Error{KindUser, "not_queued", "You are not in this queue."}
	ErrQueueFull     = &Error{KindUser, "queue_full", "The queue is full."}
	ErrQueueClosed   = &Error{KindUser, "queue_closed", "The queue is currently closed."}
	ErrNotTemporary  = &Error{KindUser, "not_temporary", "The voice channel you are in is not a temporary voice channel."}
	ErrNotAuthorized = &Error{KindUser, "not_authorized", "You have no permission to lock or unlock this voice channel."}
	ErrAlreadyLocked = &Error{KindUser, "already_locked", "The channel is already locked."}
	ErrNotInVoice    = &Error{KindUser, "not_in_voice", "You are currently not in a voice channel on this server."}
	ErrOnCooldown    = &Error{KindUser, "on_cooldown", "Please wait before using this command again."}
	ErrRoleConflict  = &Error{KindUser, "role_conflict", "A channel cannot be both a spawner and bound to a queue."}
	ErrUnknownQueue  = &Error{KindUser, "unknown_queue", "There is no queue with that name."}
	ErrQueueExists   = &Error{KindUser, "queue_exists", "A queue with that name already exists."}
	ErrInvalidSpan   = &Error{KindUser, "invalid_span", "Invalid queue span, expected e.g. MONDAY 08:00 - FRIDAY 17:00."}
	ErrInvalidOption = &Error{KindUser, "invalid_option", "Invalid command option."}

	ErrReferencedQueueMissing = &Error{KindIntegrity, "queue_missing", "The referenced queue does not exist."}
	ErrMemberNotMovable       = &Error{KindIntegrity, "member_not_movable", "The member could not be moved."}
	ErrChannelNotDeletable    = &Error{KindIntegrity, "channel_not_deletable", "The channel could not be deleted."}
	ErrExternalMutation       = &Error{KindIntegrity, "external_mutation", "The platform rejected the change."}

	ErrUndeliverable = &Error{KindTransient, "undeliverable", "The notification could not be delivered."}
)

// InvalidOption: ErrInvalidOption con la opción y el formato esperado.
func InvalidOption(name, value, want string) *Error {
	return &Error{
		Kind:    KindUser,
		Code:    ErrInvalidOption.Code,
		Message: fmt.Sprintf("Invalid value %q for option `%s`, expected %s.", value, name, want),
	}
}

// KindOf devuelve el kind del primer *Error de la cadena. Sin kind cuenta
// como integridad.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIntegrity
}

// UserMessage: el texto que puede ver quien pidió.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUser {
		return e.Message
	}
	return "Something went wrong while processing your request."
}
