package auth

import "context"

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

// SubjectFromContext is the operator username set by JWTMiddleware, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySub).(string)
	return s
}
