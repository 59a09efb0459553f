package out

import "context"

type PreferenceStore interface {
	GetBool(ctx context.Context, namespace, key string, fallback bool) (bool, error)
	PutBool(ctx context.Context, namespace, key string, value bool) error
}
