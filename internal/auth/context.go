package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxPhone
	ctxRole
)

func WithIdentity(ctx context.Context, userID, phone, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxPhone, phone)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func Phone(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxPhone).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("phone not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
