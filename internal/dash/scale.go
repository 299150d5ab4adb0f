package dash

import (
	"math"
	"math/bits"
)

const (
	MicrosPerSecond = 1_000_000
	MillisPerSecond = 1_000

	// TimeUnset marks a time or duration that is not known.
	TimeUnset int64 = math.MinInt64 + 1
	// IndexUnbounded is the segment count of an index that keeps growing.
	IndexUnbounded int64 = -1
	// LengthUnbounded is the length of a byte range that runs to the end of the resource.
	LengthUnbounded int64 = -1
)

// uint128 holds the intermediate product of two 64-bit values.
type uint128 struct {
	hi, lo uint64
}

func mul64(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{hi: hi, lo: lo}
}

func (u uint128) add64(v uint64) uint128 {
	lo, carry := bits.Add64(u.lo, v, 0)
	return uint128{hi: u.hi + carry, lo: lo}
}

func (u uint128) sub64(v uint64) uint128 {
	lo, borrow := bits.Sub64(u.lo, v, 0)
	return uint128{hi: u.hi - borrow, lo: lo}
}

// divMod divides u by d. d must be non-zero.
func (u uint128) divMod(d uint64) (uint128, uint64) {
	qhi := u.hi / d
	qlo, rem := bits.Div64(u.hi%d, u.lo, d)
	return uint128{hi: qhi, lo: qlo}, rem
}

func (u uint128) saturate() uint64 {
	if u.hi != 0 {
		return math.MaxUint64
	}
	return u.lo
}

// ScaleLargeTimestamp returns value*multiplier/divisor rounded toward zero.
// The product is held in 128 bits; results above MaxUint64 saturate.
func ScaleLargeTimestamp(value, multiplier, divisor uint64) uint64 {
	q, _ := mul64(value, multiplier).divMod(divisor)
	return q.saturate()
}

// scaleSigned is ScaleLargeTimestamp for signed values, rounding toward zero
// and saturating at the int64 limits.
func scaleSigned(value int64, multiplier, divisor uint64) int64 {
	neg := value < 0
	mag := uint64(value)
	if neg {
		mag = ^mag + 1
	}
	s := ScaleLargeTimestamp(mag, multiplier, divisor)
	if s > math.MaxInt64 {
		s = math.MaxInt64
	}
	if neg {
		return -int64(s)
	}
	return int64(s)
}

// CeilDivide returns ceil(a*b / (c*d)) without floating point.
//
// It relies on ceil(ceil(x/c)/d) == ceil(x/(c*d)) for positive integers, so
// neither the numerator nor the denominator product can overflow. c and d
// must be non-zero.
func CeilDivide(a, b, c, d uint64) uint64 {
	q, r := mul64(a, b).divMod(c)
	if r != 0 {
		q = q.add64(1)
	}
	q2, r2 := q.divMod(d)
	if r2 != 0 {
		q2 = q2.add64(1)
	}
	return q2.saturate()
}

// TicksToUs converts a value in timescale units to microseconds.
func TicksToUs(ticks int64, timescale uint64) int64 {
	return scaleSigned(ticks, MicrosPerSecond, timescale)
}

// UsToTicks converts microseconds to timescale units.
func UsToTicks(us int64, timescale uint64) int64 {
	return scaleSigned(us, timescale, MicrosPerSecond)
}

// maxTicksAtOrBefore returns the largest tick value v with TicksToUs(v) <= timeUs.
// timeUs must not be negative.
func maxTicksAtOrBefore(timeUs int64, timescale uint64) uint64 {
	// v*1e6/ts < t+1  <=>  v <= ((t+1)*ts - 1) / 1e6
	x := mul64(uint64(timeUs)+1, timescale).sub64(1)
	q, _ := x.divMod(MicrosPerSecond)
	return q.saturate()
}

// MsToUs converts milliseconds to microseconds, preserving TimeUnset.
func MsToUs(ms int64) int64 {
	if ms == TimeUnset {
		return TimeUnset
	}
	return ms * 1000
}

// UsToMs converts microseconds to milliseconds, preserving TimeUnset.
func UsToMs(us int64) int64 {
	if us == TimeUnset {
		return TimeUnset
	}
	return us / 1000
}
