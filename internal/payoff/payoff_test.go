package payoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundOneFormulas(t *testing.T) {
	assert.Equal(t, 3000, Tripled(1000))
	assert.Equal(t, 600, RoundOneEarningsA(1000, 1000, 600))
	assert.Equal(t, 2400, RoundOneEarningsB(3000, 600))
}

func TestRoundTwoFormulas(t *testing.T) {
	received := Tripled(800)
	assert.Equal(t, 2400, received)
	assert.Equal(t, 3000, FinalEarningsA(600, received))
	assert.Equal(t, 1600, FinalEarningsB(2400, 800))
}

func TestParamsRounds(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	r1 := p.RoundOne(600)
	assert.Equal(t, RoundOne{Sent: 1000, Received: 3000, Returned: 600, EarningsA: 600, EarningsB: 2400}, r1)

	r2 := p.RoundTwo(r1, 800)
	assert.Equal(t, RoundTwo{Sent: 800, Received: 2400, FinalEarningsA: 3000, FinalEarningsB: 1600}, r2)
}

func TestBoundaryInputs(t *testing.T) {
	p := DefaultParams()

	t.Run("nothing returned", func(t *testing.T) {
		r1 := p.RoundOne(0)
		assert.Equal(t, 0, r1.EarningsA)
		assert.Equal(t, 3000, r1.EarningsB)
	})

	t.Run("everything returned", func(t *testing.T) {
		r1 := p.RoundOne(p.Received())
		assert.Equal(t, 3000, r1.EarningsA)
		assert.Equal(t, 0, r1.EarningsB)

		r2 := p.RoundTwo(r1, 0)
		assert.Equal(t, 3000, r2.FinalEarningsA)
		assert.Equal(t, 0, r2.FinalEarningsB)
	})

	t.Run("everything sent back", func(t *testing.T) {
		r1 := p.RoundOne(600)
		r2 := p.RoundTwo(r1, r1.EarningsB)
		assert.Equal(t, 600+3*2400, r2.FinalEarningsA)
		assert.Equal(t, 0, r2.FinalEarningsB)
	})
}

func TestFinalEarningsMonotonicInRoundTwoSent(t *testing.T) {
	p := DefaultParams()
	r1 := p.RoundOne(600)

	prev := p.RoundTwo(r1, 0)
	for sent := 1; sent <= r1.EarningsB; sent++ {
		cur := p.RoundTwo(r1, sent)
		if cur.FinalEarningsA < prev.FinalEarningsA {
			t.Fatalf("final A decreased at sent=%d: %d < %d", sent, cur.FinalEarningsA, prev.FinalEarningsA)
		}
		if cur.FinalEarningsB > prev.FinalEarningsB {
			t.Fatalf("final B increased at sent=%d: %d > %d", sent, cur.FinalEarningsB, prev.FinalEarningsB)
		}
		if cur.FinalEarningsA < 0 || cur.FinalEarningsB < 0 {
			t.Fatalf("negative earnings at sent=%d: %+v", sent, cur)
		}
		prev = cur
	}
}

func TestParamsValidate(t *testing.T) {
	assert.Error(t, Params{InitialEndowment: 0, Multiplier: 3}.Validate())
	assert.Error(t, Params{InitialEndowment: 1000, Multiplier: 0}.Validate())
	assert.NoError(t, Params{InitialEndowment: 50, Multiplier: 2}.Validate())

	p := Params{InitialEndowment: 50, Multiplier: 2}
	assert.Equal(t, 100, p.Received())
}
