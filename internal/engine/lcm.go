package engine

import (
	"fmt"
	"math"
)

// GCD returns the greatest common divisor of a and b (always >= 0).
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of values.
// LCM() is 1 and any zero makes the result 0. Panics if the result does
// not fit in an int64.
func LCM(values ...int64) int64 {
	l, ok := lcm(values...)
	if !ok {
		panic(fmt.Sprintf("engine: LCM%v overflows int64", values))
	}
	return l
}

// lcm is LCM with overflow reported instead of panicking.
func lcm(values ...int64) (int64, bool) {
	acc := int64(1)
	for _, v := range values {
		if v < 0 {
			v = -v
		}
		if v == 0 {
			return 0, true
		}
		step := v / GCD(acc, v)
		if acc > math.MaxInt64/step {
			return 0, false
		}
		acc *= step
	}
	return acc, true
}
