package dataset

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Coordinates is a validated point location. Longitude accepts both the
// [-180,180] and [0,360] conventions used by ERA5 products.
type Coordinates struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=360"`
}

var validate = validator.New()

// ValidateCoordinates rejects out-of-range coordinates before any I/O.
func ValidateCoordinates(lat, lon float64) error {
	err := validate.Struct(Coordinates{Lat: lat, Lon: lon})
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Lat":
				return fmt.Errorf("latitude must be between -90 and 90, got %v", lat)
			case "Lon":
				return fmt.Errorf("longitude must be between -180 and 360, got %v", lon)
			}
		}
	}
	return fmt.Errorf("invalid coordinates: %w", err)
}
