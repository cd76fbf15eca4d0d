package core

import "context"

type requestMetaKey struct{}

// RequestMeta identifies the client behind a mutation. The audit journal
// copies it into every entry recorded under the same context.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta returns a copy of ctx carrying meta.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the metadata stored in ctx. The zero value means
// the call did not come from a client request (a job or the terminal UI).
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
