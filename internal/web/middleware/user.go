package middleware

import "context"

type userHolderKey struct{}

type userHolder struct {
	id string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey{}, h)
}

// noteUser records the authenticated user for the access log.
func noteUser(ctx context.Context, userID string) {
	if h, ok := ctx.Value(userHolderKey{}).(*userHolder); ok {
		h.id = userID
	}
}
