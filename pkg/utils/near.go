package utils

import (
	"github.com/shopspring/decimal"
)

// yocto is the number of decimal places in the chain's base unit.
const yocto = 24

// YoctoToNear converts a yoctoNEAR amount (decimal string) to NEAR.
// Invalid input yields "0" rather than an error; export rows should
// never abort on a malformed on-chain amount.
func YoctoToNear(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "0"
	}
	return d.Shift(-yocto).String()
}
