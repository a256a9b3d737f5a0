package generaxcore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaledValueConstruction(t *testing.T) {
	v := NewScaledValue(0.5)
	require.Equal(t, 0.5, v.Value)
	require.Equal(t, 0, v.Scaler)

	null := NullScaledValue()
	require.True(t, null.IsNull())
	require.Equal(t, NullScaler, null.Scaler)
	require.Equal(t, 0.0, null.Float64())
}

func TestScaledValueFloat64(t *testing.T) {
	require.Equal(t, 2.5, NewScaledValue(2.5).Float64())
	// values scaled out of the float64 range convert to zero
	require.Equal(t, 0.0, ScaledValue{Value: 1.0, Scaler: 1}.Float64())
	require.Equal(t, 0.0, NullScaledValue().Float64())
}

func TestScaledValueAddDominance(t *testing.T) {
	a := NewScaledValue(1.0)
	b := ScaledValue{Value: 1.0, Scaler: 1} // a factor beta smaller than a

	require.True(t, a.Add(b).Equal(a))
	require.True(t, b.Add(a).Equal(a))
	require.True(t, a.Add(a).Equal(NewScaledValue(2.0)))

	c := a
	c.AddEq(b)
	require.True(t, c.Equal(a))
	c = b
	c.AddEq(a)
	require.True(t, c.Equal(a))
}

func TestScaledValueSub(t *testing.T) {
	a := NewScaledValue(5.0)
	b := NewScaledValue(3.0)
	require.True(t, a.Sub(b).Equal(NewScaledValue(2.0)))

	// (a + b) - b == a for equal scalers
	sum := a.Add(b)
	require.True(t, sum.Sub(b).Equal(a))

	// a tiny negative difference clamps to null
	almost := NewScaledValue(3.0 + 1e-12)
	require.True(t, b.Sub(almost).IsNull())

	// a real negative difference is a contract violation
	require.Panics(t, func() { b.Sub(a) })
	// so is subtracting a dominating magnitude
	small := ScaledValue{Value: 1.0, Scaler: 2}
	big := ScaledValue{Value: 1.0, Scaler: 1}
	require.Panics(t, func() { small.Sub(big) })
	// subtracting a negligible magnitude keeps the receiver
	require.True(t, big.Sub(small).Equal(big))
}

func TestScaledValueMul(t *testing.T) {
	a := ScaledValue{Value: 0.5, Scaler: 1}
	b := ScaledValue{Value: 0.25, Scaler: 2}
	ab := a.Mul(b)
	ba := b.Mul(a)
	require.True(t, ab.Equal(ba))
	require.Equal(t, 3, ab.Scaler)
	require.Equal(t, 0.125, ab.Value)

	c := a
	c.MulEq(b)
	require.True(t, c.Equal(ab))

	d := a.MulFloat(4.0)
	require.Equal(t, 2.0, d.Value)
	require.Equal(t, 1, d.Scaler)

	e := a.DivFloat(2.0)
	require.Equal(t, 0.25, e.Value)
	require.Equal(t, 1, e.Scaler)
}

func TestScaledValueScale(t *testing.T) {
	v := ScaledValue{Value: 1e-100, Scaler: 0}
	v.Scale()
	require.Equal(t, 1, v.Scaler)
	require.GreaterOrEqual(t, v.Value, ScaleThreshold)
	// idempotent once in range
	before := v
	v.Scale()
	require.Equal(t, before, v)

	zero := ScaledValue{Value: 0.0, Scaler: 3}
	zero.Scale()
	require.Equal(t, NullScaler, zero.Scaler)
}

func TestScaledValueCompare(t *testing.T) {
	null := NullScaledValue()
	small := ScaledValue{Value: 1.0, Scaler: 5}
	big := NewScaledValue(1.0)

	// null is strictly smaller than any non-null
	require.True(t, null.Less(small))
	require.True(t, null.Less(big))
	require.True(t, small.Less(big))  // larger scaler means smaller magnitude
	require.False(t, big.Less(small))
	require.True(t, small.Greater(null))

	// the asymmetric null comparisons of the original are preserved
	require.False(t, null.Less(null))
	require.True(t, null.LessEq(null))
	require.False(t, null.Greater(null))
	require.True(t, null.GreaterEq(null))

	require.True(t, big.Equal(NewScaledValue(1.0)))
	require.False(t, big.Equal(small))
}

func TestScaledValueIsProba(t *testing.T) {
	require.True(t, NewScaledValue(0.5).IsProba())
	require.True(t, NewScaledValue(1.0).IsProba())
	require.False(t, NewScaledValue(1.5).IsProba())
	require.True(t, NullScaledValue().IsProba())
	// a deeply scaled value is far below 1
	require.True(t, ScaledValue{Value: 123.0, Scaler: 4}.IsProba())
}

func TestScaledValueLog(t *testing.T) {
	require.True(t, math.IsInf(NullScaledValue().Log(), -1))

	a := ScaledValue{Value: 0.5, Scaler: 1}
	b := ScaledValue{Value: 0.25, Scaler: 2}
	require.InDelta(t, a.Log()+b.Log(), a.Mul(b).Log(), 1e-9)

	v := NewScaledValue(math.E)
	require.InDelta(t, 1.0, v.Log(), 1e-12)
}
