package common

import (
	"errors"
	"fmt"
)

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg)
}

// Combine merges shutdown-path errors, dropping nils.
func Combine(errs ...error) error {
	var msgs []any
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return NewError(msgs...)
}
