package domain

import "errors"

var (
	// ErrInvalidLatitude indicates a latitude outside [-90, 90].
	ErrInvalidLatitude = errors.New("latitude must be between -90 and 90")

	// ErrInvalidLongitude indicates a longitude outside [-180, 180].
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")

	// ErrInvalidTimezone indicates a time zone name the tz database does not know.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrUnknownPrayer indicates an unrecognized prayer name.
	ErrUnknownPrayer = errors.New("unknown prayer")

	// ErrInvalidOption indicates an unrecognized Asr, high latitude or polar setting.
	ErrInvalidOption = errors.New("invalid option")

	// ErrPolarUnresolved indicates the sun never reaches the required angle on
	// this day and no polar circle resolution was selected.
	ErrPolarUnresolved = errors.New("prayer times undefined at this latitude and date")
)
