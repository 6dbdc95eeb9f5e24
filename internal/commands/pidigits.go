package commands

import (
	"math/big"
	"sync"
)

const piDigitCount = 1000

var (
	piOnce   sync.Once
	piDigits string
)

// PiDigits returns the first 1000 digits of pi, starting with the leading 3.
func PiDigits() string {
	piOnce.Do(func() { piDigits = computePi(piDigitCount) })
	return piDigits
}

// computePi uses Machin's formula pi = 16*atan(1/5) - 4*atan(1/239) in fixed point with ten
// guard digits.
func computePi(n int) string {
	const guard = 10
	unity := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1+guard)), nil)
	pi := new(big.Int).Mul(big.NewInt(16), arctanInv(5, unity))
	pi.Sub(pi, new(big.Int).Mul(big.NewInt(4), arctanInv(239, unity)))
	pi.Div(pi, new(big.Int).Exp(big.NewInt(10), big.NewInt(guard), nil))
	return pi.String()[:n]
}

// arctanInv returns unity*atan(1/x) by the alternating Taylor series.
func arctanInv(x int64, unity *big.Int) *big.Int {
	sum := new(big.Int)
	x2 := big.NewInt(x * x)
	power := new(big.Int).Div(unity, big.NewInt(x))
	term := new(big.Int)
	for k := int64(1); power.Sign() != 0; k += 2 {
		term.Div(power, big.NewInt(k))
		if (k/2)%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
		power.Div(power, x2)
	}
	return sum
}
