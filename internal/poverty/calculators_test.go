package poverty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinomialChooseTwo(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		for _, n := range []int{-1, 0, 1, 61, 100} {
			_, err := BinomialChooseTwo(n)
			assert.ErrorIs(t, err, ErrOutOfRange, "n=%d", n)
		}
	})

	t.Run("table matches formula", func(t *testing.T) {
		prev := 0
		for n := MinBinomialN; n <= MaxBinomialN; n++ {
			got, err := BinomialChooseTwo(n)
			require.NoError(t, err)
			assert.Equal(t, n*(n-1)/2, got, "n=%d", n)
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	})

	t.Run("known values", func(t *testing.T) {
		v, _ := BinomialChooseTwo(2)
		assert.Equal(t, 1, v)
		v, _ = BinomialChooseTwo(3)
		assert.Equal(t, 3, v)
		v, _ = BinomialChooseTwo(60)
		assert.Equal(t, 1770, v)
	})
}

func TestSum(t *testing.T) {
	t.Run("order independence", func(t *testing.T) {
		assert.Equal(t, SumOf(3, 1, 2), SumOf(1, 2, 3))
		assert.Equal(t, SumOf(2, 3, 1), SumOf(1, 2, 3))
		assert.Equal(t, 6.0, SumOf(2, 3, 1))
	})

	t.Run("bit identical for ill-conditioned terms", func(t *testing.T) {
		terms := []float64{1e16, 1.0, -1e16, 3.14159, 1e-8, 2.5e15, -7.25}
		reversed := make([]float64, len(terms))
		for i, v := range terms {
			reversed[len(terms)-1-i] = v
		}

		var a, b Sum
		a.AddAll(terms...)
		for _, v := range reversed {
			b.Add(v)
		}
		assert.Equal(t, math.Float64bits(a.Value()), math.Float64bits(b.Value()))
		assert.Equal(t, len(terms), a.Len())
	})

	t.Run("empty sum is zero", func(t *testing.T) {
		var s Sum
		assert.Equal(t, 0.0, s.Value())
	})

	t.Run("SumOf does not reorder caller slice", func(t *testing.T) {
		terms := []float64{3, 1, 2}
		SumOf(terms...)
		assert.Equal(t, []float64{3, 1, 2}, terms)
	})
}

func TestEmergencyEffectCalculator(t *testing.T) {
	_, err := NewEmergencyEffectCalculator(2010, 2010)
	assert.ErrorIs(t, err, ErrPrecondition)

	c, err := NewEmergencyEffectCalculator(2010, 2013)
	require.NoError(t, err)
	assert.Equal(t, 4, c.WaveCount())
	assert.Equal(t, 10.0, c.Denominator())

	tests := []struct {
		name string
		gaps []float64
		want float64
	}{
		{"never poor", []float64{-1, -1, -1, -1}, 0},
		{"poor first year only", []float64{0.5, -1, -1, -1}, 0.1},
		{"poor last year only", []float64{-1, -1, -1, 0.5}, 0.4},
		{"always poor", []float64{0.1, 0.1, 0.1, 0.1}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTimeline(t, "IT", "1", 2010, tt.gaps...)
			assert.InDelta(t, tt.want, c.CalculateFor(p), 1e-12)
		})
	}
}

func TestSequenceEffectCalculator_Preconditions(t *testing.T) {
	_, err := NewSequenceEffectCalculator(2012, 2010, NewRatioTable(nil))
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = NewSequenceEffectCalculator(2010, 2012, nil)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = NewSequenceEffectCalculator(1900, 1970, NewRatioTable(nil))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSequenceEffectCalculator_Denominators(t *testing.T) {
	c, err := NewSequenceEffectCalculator(2010, 2013, NewRatioTable(nil))
	require.NoError(t, err)

	d1, d2 := c.Denominators()
	assert.Equal(t, 6.0, d1)
	// 1/4 + 2/3 + 3/2
	assert.InDelta(t, 0.25+2.0/3.0+1.5, d2, 1e-12)
}

func TestSequenceEffectCalculator_DegenerateCases(t *testing.T) {
	c, err := NewSequenceEffectCalculator(2010, 2013, NewRatioTable(nil))
	require.NoError(t, err)
	d1, d2 := c.Denominators()

	t.Run("no poverty years", func(t *testing.T) {
		p := newTimeline(t, "IT", "1", 2010, -1, -1, -1, -1)
		assert.Equal(t, SequenceEffect{}, c.CalculateFor(p))
	})

	t.Run("one poverty year", func(t *testing.T) {
		p := newTimeline(t, "IT", "1", 2010, -1, 0.4, -1, -1)
		se := c.CalculateFor(p)
		assert.Equal(t, 0.4/d1, se.V1)
		assert.Equal(t, 0.4/d1, se.V2)
		assert.Equal(t, 0.4/d2, se.V3)
		assert.Equal(t, 0.4/d2, se.V4)
		assert.Equal(t, 0.4/d2, se.V5)
	})
}

func TestSequenceEffectCalculator_Pairs(t *testing.T) {
	ratio, err := NewPersistenceRatio("IT", 2010, 2012, 4, 1)
	require.NoError(t, err)
	ratios := NewRatioTable([]PersistenceRatio{ratio})

	c, err := NewSequenceEffectCalculator(2010, 2012, ratios)
	require.NoError(t, err)
	d1, d2 := c.Denominators()

	// poor in 2010 and 2012, not in 2011: one pair, distance 3, one gap year, P=0.25
	p := newTimeline(t, "IT", "1", 2010, 0.2, -1, 0.6)
	se := c.CalculateFor(p)

	w := 0.4
	persistent := math.Pow(3, -(0.25 * 2))
	assert.InDelta(t, w*persistent/d1, se.V1, 1e-12)
	assert.InDelta(t, persistent/d1, se.V2, 1e-12)
	assert.InDelta(t, w*math.Pow(3, -2)/d2, se.V3, 1e-12)
	assert.InDelta(t, w/3/d2, se.V4, 1e-12)
	assert.InDelta(t, 1.0/3/d2, se.V5, 1e-12)

	t.Run("missing ratio counts as zero probability", func(t *testing.T) {
		other := newTimeline(t, "FR", "1", 2010, 0.2, -1, 0.6)
		se := c.CalculateFor(other)
		// d^0 == 1
		assert.InDelta(t, w/d1, se.V1, 1e-12)
		assert.InDelta(t, 1.0/d1, se.V2, 1e-12)
	})
}

func TestSpellIndices(t *testing.T) {
	tests := []struct {
		name     string
		gaps     []float64
		maxSpell int
		spells   int
		bossert  float64
		bcd2     float64
	}{
		{
			name: "never poor",
			gaps: []float64{-1, -1, -1},
		},
		{
			name:     "single full spell",
			gaps:     []float64{0.5, 0.5, 0.5},
			maxSpell: 3,
			spells:   1,
			bossert:  3 * 1.5 / 3,
			bcd2:     (0.5 + 1 + 2) / 3,
		},
		{
			name:     "two spells",
			gaps:     []float64{0.5, 0.25, -1, 0.5, -1},
			maxSpell: 2,
			spells:   2,
			bossert:  (2*0.75 + 1*0.5) / 5,
			bcd2:     (0.5 + 0.5 + 0.5) / 5,
		},
		{
			name:     "trailing spell",
			gaps:     []float64{-1, 1, 1, 1, 1},
			maxSpell: 4,
			spells:   1,
			bossert:  4 * 4.0 / 5,
			bcd2:     (1 + 2 + 4 + 8) / 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTimeline(t, "IT", "1", 2000, tt.gaps...)
			assert.Equal(t, tt.maxSpell, p.MaxSpell())
			assert.Equal(t, tt.spells, p.SpellCount())
			assert.InDelta(t, tt.bossert, p.BossertIndex(), 1e-12)
			assert.InDelta(t, tt.bcd2, p.BCD2Index(), 1e-12)
		})
	}

	t.Run("empty timeline", func(t *testing.T) {
		p := NewPersonTimeline("IT", "0")
		assert.Equal(t, 0, p.MaxSpell())
		assert.Equal(t, 0.0, p.BossertIndex())
		assert.Equal(t, 0.0, p.BCD2Index())
	})
}

func TestIndexComposer(t *testing.T) {
	c := NewIndexComposer(0.3)
	assert.InDelta(t, 0.3*2+0.7*1, c.Compose(2, 1), 1e-12)

	se := SequenceEffect{V1: 1, V2: 2, V3: 3, V4: 4, V5: 5}
	assert.Equal(t, [5]float64{0.5, 0.5, 0.5, 0.5, 0.5}, NewIndexComposer(0).ComposeAll(se, 0.5))
	assert.Equal(t, se.Values(), NewIndexComposer(1).ComposeAll(se, 0.5))
}

func TestAlphaSweep(t *testing.T) {
	alphas, err := AlphaSweep(DefaultAlphaStep)
	require.NoError(t, err)
	require.Len(t, alphas, 11)
	assert.Equal(t, 0.0, alphas[0])
	assert.Equal(t, 0.1, alphas[1])
	assert.Equal(t, 0.3, alphas[3])
	assert.Equal(t, 0.7, alphas[7])
	assert.Equal(t, 1.0, alphas[10])

	alphas, err = AlphaSweep(0.25)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, alphas)

	for _, step := range []float64{0, -0.1, 1.5, 0.3} {
		_, err := AlphaSweep(step)
		assert.ErrorIs(t, err, ErrPrecondition, "step=%v", step)
	}
}
