// Package timewindow validates pickup and delivery time windows.
//
// Validation never fails loudly: missing or malformed values simply make a
// window invalid.
package timewindow

import (
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

var layouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// Result is the outcome of validating one window.
type Result struct {
	Valid bool
	// DurationHours is only meaningful when Valid is true.
	DurationHours float64
}

// Validate checks a single (date, start, end) window. The window is valid
// iff all three values are present, both instants parse, and start is
// strictly before end.
func Validate(date, start, end string) Result {
	if date == "" || start == "" || end == "" {
		return Result{}
	}
	from, ok := instant(date, start)
	if !ok {
		return Result{}
	}
	to, ok := instant(date, end)
	if !ok {
		return Result{}
	}
	if !from.Before(to) {
		return Result{}
	}
	return Result{Valid: true, DurationHours: to.Sub(from).Hours()}
}

// ValidateWindow is Validate applied to a domain.TimeWindow.
func ValidateWindow(w domain.TimeWindow) Result {
	return Validate(w.Date, w.Start, w.End)
}

// ValidateDelivery applies the pickup-anchored delivery rule: the delivery
// window must be filled, the pickup date and start must be present, and the
// delivery start must fall strictly after the pickup start and strictly
// before the delivery end.
//
// Only the pickup's raw date and start are consulted. A pickup window that is
// itself invalid (e.g. end before start) can still anchor a valid delivery.
func ValidateDelivery(pickup, delivery domain.TimeWindow) bool {
	if !delivery.Filled() || pickup.Date == "" || pickup.Start == "" {
		return false
	}
	pickupStart, ok := instant(pickup.Date, pickup.Start)
	if !ok {
		return false
	}
	deliveryStart, ok := instant(delivery.Date, delivery.Start)
	if !ok {
		return false
	}
	deliveryEnd, ok := instant(delivery.Date, delivery.End)
	if !ok {
		return false
	}
	return deliveryStart.After(pickupStart) && deliveryStart.Before(deliveryEnd)
}

// ShowError reports whether an inline error should be displayed for a
// window: only once every field is filled in and the window is still invalid.
func ShowError(w domain.TimeWindow, valid bool) bool {
	return w.Filled() && !valid
}

func instant(date, clock string) (time.Time, bool) {
	s := date + "T" + clock
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
