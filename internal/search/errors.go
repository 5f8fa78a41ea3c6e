package search

import "errors"

var ErrGeocoderDisabled = errors.New("GEOCODER_DISABLED")
