package auth

import "context"

type contextKey string

const (
	userKey      contextKey = "auth_user"
	authErrorKey contextKey = "auth_error"
)

// Identity resolves the user behind the current operation. An empty id with
// a nil error means nobody is logged in.
type Identity interface {
	CurrentUser(ctx context.Context) (string, error)
}

// WithUser returns a context carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// WithError returns a context recording a failed identity lookup.
func WithError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authErrorKey, err)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey).(string)
	return userID, ok && userID != ""
}

// ContextIdentity reads the identity placed in the context by the auth middleware.
type ContextIdentity struct{}

// CurrentUser implements Identity.
func (ContextIdentity) CurrentUser(ctx context.Context) (string, error) {
	if err, ok := ctx.Value(authErrorKey).(error); ok && err != nil {
		return "", err
	}
	userID, _ := UserFromContext(ctx)
	return userID, nil
}
