// Package policy decides what an actor may do with posts, comments, groups and
// follow edges. A nil actor is an anonymous viewer.
package policy

import (
	"backend-yatube/internal/apperr"
	"backend-yatube/internal/auth"
)

// Authored is anything owned by a single user.
type Authored interface {
	AuthorIdentity() int64
}

func CanEdit(actor *auth.Actor, item Authored) bool {
	return actor.Authenticated() && item != nil && actor.ID == item.AuthorIdentity()
}

func CanDelete(actor *auth.Actor, item Authored) bool {
	return CanEdit(actor, item)
}

func CanComment(actor *auth.Actor) bool {
	return actor.Authenticated()
}

func CanManageGroups(actor *auth.Actor) bool {
	return actor.Authenticated() && actor.IsStaff
}

// CheckFollow reports why actor may not follow the target user, or nil.
func CheckFollow(actor *auth.Actor, targetID int64) error {
	if !actor.Authenticated() {
		return apperr.ErrAnonymous
	}
	if actor.ID == targetID {
		return apperr.ErrSelfFollow
	}
	return nil
}

// RequireEdit is CanEdit as an error for service code.
func RequireEdit(actor *auth.Actor, item Authored) error {
	if !actor.Authenticated() {
		return apperr.ErrAnonymous
	}
	if !CanEdit(actor, item) {
		return apperr.ErrNotAuthor
	}
	return nil
}

func RequireStaff(actor *auth.Actor) error {
	if !actor.Authenticated() {
		return apperr.ErrAnonymous
	}
	if !actor.IsStaff {
		return apperr.ErrNotStaff
	}
	return nil
}
