package server

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var reportGroup singleflight.Group

// coalesce runs fn once for concurrent callers sharing key. A caller whose
// context ends stops waiting; the computation still completes for the rest.
func coalesce(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	resultChan := reportGroup.DoChan(key, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
