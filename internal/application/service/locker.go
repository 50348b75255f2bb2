package service

import "context"

// OwnerLocker serializes mutations per key (single writer per owner).
// Lock blocks until the key is acquired or ctx is done. The returned
// function releases the key and is safe to call once.
type OwnerLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
