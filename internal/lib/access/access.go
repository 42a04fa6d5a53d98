// Package access decides whether an authenticated caller may mutate a resource.
package access

import "errors"

// ErrForbidden means the caller is known but does not own the resource.
var ErrForbidden = errors.New("forbidden")

type Owned interface {
	OwnerID() string
}

func OwnsResource(requesterID string, res Owned) bool {
	return requesterID != "" && requesterID == res.OwnerID()
}

func Check(requesterID string, res Owned) error {
	if !OwnsResource(requesterID, res) {
		return ErrForbidden
	}
	return nil
}
