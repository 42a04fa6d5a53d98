package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrArticleNotFound = errors.New("article not found")
	ErrCommentNotFound = errors.New("comment not found")

	ErrTokenNotFound = errors.New("token not found")
)
