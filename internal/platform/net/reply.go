package net

import (
	perr "trackergen/internal/platform/errors"
)

// ErrorBody is the only error shape the tracker endpoints emit
// It never carries upstream detail, see perr.PublicMessage
type ErrorBody struct {
	Error string `json:"error"`
}

// Error maps any error to a status and a body that is safe to send
func Error(err error) (int, ErrorBody) {
	return perr.HTTPStatus(err), ErrorBody{Error: perr.PublicMessage(err)}
}
