// Package viewmodel combines the session store and the observable
// repositories into per-screen reactive state objects.
//
// # Synchronization protocol
//
// Each view-model owns its subscription lifecycle: subscriptions are created
// on Mount once an identity is present, torn down on Unmount, and replaced
// when the identity changes. A monotonically incrementing generation counter
// guards every asynchronous result: the counter is bumped on each identity
// change and on Unmount, and any result tagged with an older generation is
// discarded on arrival. This resolves the race between the initial one-shot
// fetch and the first live-subscription callback, and makes stale
// post-teardown deliveries no-ops.
//
// Within a generation the one-shot fetch and the first live snapshot race
// deliberately: whichever arrives last wins the initial render. Once the
// subscription has delivered more than one snapshot it is the source of
// truth and late one-shot results are dropped.
//
// Errors never escape a delivery callback; they are logged and turned into
// displayable state, leaving the previous good records in place.
package viewmodel

import (
	"errors"

	"github.com/bytebank/banksync/internal/common"
)

// UserMessage maps an error kind to a message presentation can show directly.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthCancelled):
		return "Sign-in was cancelled."
	case errors.Is(err, common.ErrAuthInvalidCredential):
		return "Invalid email or password."
	case errors.Is(err, common.ErrAuthProviderUnavailable):
		return "Sign-in is unavailable right now. Try again."
	case errors.Is(err, common.ErrAuthConfigMissing):
		return "Sign-in is not configured on this device."
	case errors.Is(err, common.ErrValidation):
		return "Some fields are missing or invalid."
	case errors.Is(err, common.ErrNotFound):
		return "This item no longer exists."
	case errors.Is(err, common.ErrBackendUnavailable), errors.Is(err, common.ErrNetwork):
		return "Connection problem. Pull to retry."
	default:
		return "Something went wrong. Try again."
	}
}

// dedupeByID drops records repeating an id seen earlier in the slice. An
// optimistic local record and its acknowledged server copy must not render
// twice.
func dedupeByID[T any](records []T, id func(T) string) []T {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, rec := range records {
		key := id(rec)
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}
