package lookup

import (
	"errors"
	"fmt"

	"github.com/myair/myair/internal/airquality"
)

// fallbackPlace is shown when a coordinate lookup has no resolved name.
const fallbackPlace = "Your area"

// StatusLine formats a reading as the single status line shown to users.
func StatusLine(r *airquality.Reading) string {
	place := r.City
	if place == "" {
		place = fallbackPlace
	}
	return fmt.Sprintf("%s: AQI Level %d — %s", place, r.AQI, airquality.Interpret(r.AQI))
}

// ErrorLine maps a lookup failure to its fixed user-facing message.
// No raw error detail ever reaches the user.
func ErrorLine(err error) string {
	switch {
	case errors.Is(err, airquality.ErrCityNotFound):
		return "City not found."
	case errors.Is(err, airquality.ErrNoReading):
		return "No AQI data found."
	default:
		return "Failed to load air quality data."
	}
}
