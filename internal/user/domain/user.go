package domain

import "errors"

var ErrNotFound = errors.New("user not found")

type User struct {
	ID          string
	PhoneNumber string
}
