package favorites

import "github.com/al3xb0/mindpal-task/internal/model"

// Notifier receives the user-facing notifications produced by an engine.
type Notifier interface {
	Notify(n model.Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n model.Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n model.Notification) {
	f(n)
}

type notifierCell struct {
	notifier Notifier
}

// Notification codes.
const (
	CodeRateLimited      = "RATE_LIMITED"
	CodeAuthError        = "AUTH_ERROR"
	CodeAuthRequired     = "AUTH_REQUIRED"
	CodeAdded            = "FAVORITE_ADDED"
	CodeRemoved          = "FAVORITE_REMOVED"
	CodeAddFailed        = "ADD_FAILED"
	CodeRemoveFailed     = "REMOVE_FAILED"
	CodeInvalidCharacter = "INVALID_CHARACTER"
	CodeUnexpected       = "UNEXPECTED_ERROR"
)

func rateLimitedNotice() model.Notification {
	return model.Notification{Level: model.LevelInfo, Code: CodeRateLimited, Message: "Please wait before trying again"}
}

func authErrorNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeAuthError, Message: "Authentication error. Please try logging in again."}
}

func authRequiredNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeAuthRequired, Message: "You must be logged in to manage favorites"}
}

func addedNotice(name string) model.Notification {
	return model.Notification{Level: model.LevelSuccess, Code: CodeAdded, Message: name + " added to favorites!"}
}

func removedNotice(name string) model.Notification {
	return model.Notification{Level: model.LevelInfo, Code: CodeRemoved, Message: name + " removed from favorites"}
}

func addFailedNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeAddFailed, Message: "Failed to add to favorites"}
}

func removeFailedNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeRemoveFailed, Message: "Failed to remove from favorites"}
}

func invalidCharacterNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeInvalidCharacter, Message: "Invalid character id"}
}

func unexpectedNotice() model.Notification {
	return model.Notification{Level: model.LevelError, Code: CodeUnexpected, Message: "An unexpected error occurred"}
}
