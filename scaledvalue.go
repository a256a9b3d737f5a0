package generaxcore

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

//ScaleFactor is exactly 2**256
const ScaleFactor = 0x1p256

//ScaleThreshold is exactly 2**-256
const ScaleThreshold = 0x1p-256

//NullScaler marks a ScaledValue that is exactly zero
const NullScaler = math.MaxInt32/2 - 1

const floatEpsilon = 2.220446049250313e-16

//ScaledValue represents a float64 value with a high precision.
//It stores a float64 and a scaling integer to represent very small
//nonnegative values: the represented magnitude is
//Value * ScaleThreshold**Scaler. When the value is null, the scaler is
//set to NullScaler.
type ScaledValue struct {
	Value  float64
	Scaler int
}

//NewScaledValue will build a ScaledValue from a plain float64
func NewScaledValue(v float64) ScaledValue {
	return ScaledValue{Value: v, Scaler: 0}
}

//NullScaledValue will build the null (exactly zero) ScaledValue
func NullScaledValue() ScaledValue {
	return ScaledValue{Value: 0.0, Scaler: NullScaler}
}

//Float64 will convert to a plain float64. Values scaled below the
//float64 range convert to 0; use Log to compare across scaler bands.
func (s ScaledValue) Float64() float64 {
	if s.Scaler == NullScaler {
		return 0.0
	} else if s.Scaler == 0 {
		return s.Value
	}
	// the value is almost zero
	return 0.0
}

//SetNull will make the value exactly zero
func (s *ScaledValue) SetNull() {
	s.Value = 0.0
	s.Scaler = NullScaler
}

//CheckNull will mark the value as null if it reached zero
func (s *ScaledValue) CheckNull() {
	if s.Value == 0.0 {
		s.Scaler = NullScaler
	}
}

//Scale will renormalize the value into [ScaleThreshold, +inf) by
//shifting one factor into the scaler. A no-op once the value is in
//range.
func (s *ScaledValue) Scale() {
	if s.Value < ScaleThreshold {
		s.Scaler++
		s.Value *= ScaleFactor
		s.CheckNull()
	}
}

//Add will return the sum of two scaled values. When the scalers differ
//the operands differ by a factor of at least ScaleFactor, so the larger
//magnitude (smaller scaler) wins entirely.
func (s ScaledValue) Add(v ScaledValue) ScaledValue {
	if v.Scaler == s.Scaler {
		return ScaledValue{Value: v.Value + s.Value, Scaler: s.Scaler}
	} else if v.Scaler < s.Scaler {
		return v
	}
	return s
}

//AddEq will add v in place
func (s *ScaledValue) AddEq(v ScaledValue) {
	if v.Scaler == s.Scaler {
		s.Value += v.Value
	} else if v.Scaler < s.Scaler {
		s.Value = v.Value
		s.Scaler = v.Scaler
	}
}

//Sub will return the difference of two scaled values. Only defined when
//the receiver dominates: a negative result beyond the tolerance panics.
func (s ScaledValue) Sub(v ScaledValue) ScaledValue {
	if v.Scaler == s.Scaler {
		diff := s.Value - v.Value
		if diff < 0.0 {
			if math.Abs(diff) < 0.0000000001 {
				return NullScaledValue()
			}
			panic(errors.Errorf("negative subtraction: %s - %s", s, v))
		}
		res := ScaledValue{Value: diff, Scaler: s.Scaler}
		res.Scale()
		return res
	} else if v.Scaler < s.Scaler {
		// we do not allow negative values
		panic(errors.Errorf("negative subtraction: %s - %s", s, v))
	}
	return s
}

//Mul will return the product of two scaled values, without
//renormalization
func (s ScaledValue) Mul(v ScaledValue) ScaledValue {
	return ScaledValue{Value: v.Value * s.Value, Scaler: v.Scaler + s.Scaler}
}

//MulEq will multiply by v in place
func (s *ScaledValue) MulEq(v ScaledValue) {
	s.Value *= v.Value
	s.Scaler += v.Scaler
}

//MulFloat will multiply the value part by a raw float64
func (s ScaledValue) MulFloat(v float64) ScaledValue {
	return ScaledValue{Value: v * s.Value, Scaler: s.Scaler}
}

//MulFloatEq will multiply the value part by a raw float64 in place
func (s *ScaledValue) MulFloatEq(v float64) {
	s.Value *= v
}

//DivFloat will divide the value part by a raw float64
func (s ScaledValue) DivFloat(v float64) ScaledValue {
	return ScaledValue{Value: s.Value / v, Scaler: s.Scaler}
}

//DivFloatEq will divide the value part by a raw float64 in place
func (s *ScaledValue) DivFloatEq(v float64) {
	s.Value /= v
}

//Less will compare magnitudes; null is strictly smaller than any
//non-null
func (s ScaledValue) Less(v ScaledValue) bool {
	if s.IsNull() {
		return !v.IsNull()
	}
	if s.Scaler != v.Scaler {
		return s.Scaler > v.Scaler
	}
	return s.Value < v.Value
}

//LessEq will compare magnitudes; null is smaller or equal to anything
func (s ScaledValue) LessEq(v ScaledValue) bool {
	if s.IsNull() {
		return true
	}
	if s.Scaler != v.Scaler {
		return s.Scaler > v.Scaler
	}
	return s.Value <= v.Value
}

//Greater is defined as the negation of LessEq
func (s ScaledValue) Greater(v ScaledValue) bool {
	return !s.LessEq(v)
}

//GreaterEq is defined as the negation of Less
func (s ScaledValue) GreaterEq(v ScaledValue) bool {
	return !s.Less(v)
}

//Equal requires identical scalers and values within machine epsilon
func (s ScaledValue) Equal(v ScaledValue) bool {
	return s.Scaler == v.Scaler && math.Abs(v.Value-s.Value) <= floatEpsilon
}

//IsNull will report whether the value is 0
func (s ScaledValue) IsNull() bool {
	return s.Value == 0.0
}

//IsProba will report whether the value lies in the [0.0, 1.0] interval
func (s ScaledValue) IsProba() bool {
	return s.LessEq(NewScaledValue(1.0)) && NullScaledValue().LessEq(s)
}

//Log will return the natural logarithm of the value as a float64
func (s ScaledValue) Log() float64 {
	if s.Scaler == NullScaler {
		return math.Inf(-1)
	}
	return math.Log(s.Value) + float64(s.Scaler)*math.Log(ScaleThreshold)
}

func (s ScaledValue) String() string {
	return "(" + strconv.FormatFloat(s.Value, 'g', -1, 64) + "," +
		strconv.Itoa(s.Scaler) + ")"
}
