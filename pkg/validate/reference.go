package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

// ReferenceLength is the digit count of a booking reference, check digit included.
const ReferenceLength = 10

// IsReference reports whether s looks like a booking reference: ten digits
// passing the Luhn check.
func IsReference(s string) bool {
	if len(s) != ReferenceLength {
		return false
	}
	err := goluhn.Validate(s)
	return err == nil
}
