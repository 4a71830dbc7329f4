package domain

import (
	"errors"
	"time"
)

// HoneypotField is the hidden form field that real users never fill in.
const HoneypotField = "nickname"

var (
	ErrSpamDetected         = errors.New("spam detected")
	ErrRateLimited          = errors.New("too many requests")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrRouteNotFound        = errors.New("route not found")
	ErrNotFound             = errors.New("not found")
	ErrInvalidQuote         = errors.New("invalid quote request")
)

// Order is a submitted booking as persisted: every form field plus the
// server receipt time.
type Order struct {
	ID         string              `json:"id" bson:"_id"`
	Fields     map[string][]string `json:"fields" bson:"fields"`
	ClientKey  string              `json:"client_key,omitempty" bson:"client_key,omitempty"`
	ReceivedAt time.Time           `json:"receivedAt" bson:"received_at"`
}

// Field returns the first value submitted for name, or "".
func (o *Order) Field(name string) string {
	if v := o.Fields[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}
