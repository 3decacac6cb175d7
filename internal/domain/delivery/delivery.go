// Package delivery tracks outbound notifications so a retried job never sends twice.
package delivery

import "errors"

var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification send in progress")
)
