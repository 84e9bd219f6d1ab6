// Package payoff computes the monetary outcomes of the two-round trust game.
// All functions are pure integer arithmetic; callers guarantee input ranges.
package payoff

import "fmt"

const (
	// InitialEndowment is what Player A holds at the start of round one.
	InitialEndowment = 1000
	// TripleMultiplier is applied to every amount sent between players.
	TripleMultiplier = 3
)

// Params holds the economic parameters of one game.
type Params struct {
	InitialEndowment int
	Multiplier       int
}

// DefaultParams returns the study's fixed parameters.
func DefaultParams() Params {
	return Params{
		InitialEndowment: InitialEndowment,
		Multiplier:       TripleMultiplier,
	}
}

// Validate rejects parameters that would make the game meaningless.
func (p Params) Validate() error {
	if p.InitialEndowment <= 0 {
		return fmt.Errorf("initial endowment must be positive, got %d", p.InitialEndowment)
	}
	if p.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %d", p.Multiplier)
	}
	return nil
}

// Tripled applies the default multiplier to x.
func Tripled(x int) int {
	return x * TripleMultiplier
}

// Multiplied applies the game's multiplier to x.
func (p Params) Multiplied(x int) int {
	return x * p.Multiplier
}

// RoundOneEarningsA is what Player A holds after round one.
func RoundOneEarningsA(initial, sent, returned int) int {
	return initial - sent + returned
}

// RoundOneEarningsB is what Player B keeps after round one.
func RoundOneEarningsB(received, returned int) int {
	return received - returned
}

// FinalEarningsA adds what A receives in round two to A's round-one earnings.
func FinalEarningsA(roundOneEarningsA, roundTwoReceived int) int {
	return roundOneEarningsA + roundTwoReceived
}

// FinalEarningsB subtracts what B sends in round two from B's round-one earnings.
func FinalEarningsB(roundOneEarningsB, roundTwoSent int) int {
	return roundOneEarningsB - roundTwoSent
}

// RoundOne is the outcome of round one, where Player A is the trustor.
type RoundOne struct {
	Sent      int
	Received  int
	Returned  int
	EarningsA int
	EarningsB int
}

// RoundTwo is the outcome of round two, where Player B is the trustor.
type RoundTwo struct {
	Sent           int
	Received       int
	FinalEarningsA int
	FinalEarningsB int
}

// Sent is the amount Player A sends in round one. A always sends the full endowment.
func (p Params) Sent() int {
	return p.InitialEndowment
}

// Received is what Player B receives in round one.
func (p Params) Received() int {
	return p.Multiplied(p.Sent())
}

// RoundOne computes round one given what B returns to A.
// returned must lie in [0, p.Received()].
func (p Params) RoundOne(returned int) RoundOne {
	sent := p.Sent()
	received := p.Multiplied(sent)
	return RoundOne{
		Sent:      sent,
		Received:  received,
		Returned:  returned,
		EarningsA: RoundOneEarningsA(p.InitialEndowment, sent, returned),
		EarningsB: RoundOneEarningsB(received, returned),
	}
}

// RoundTwo computes round two given what B sends to A.
// sent must lie in [0, r1.EarningsB].
func (p Params) RoundTwo(r1 RoundOne, sent int) RoundTwo {
	received := p.Multiplied(sent)
	return RoundTwo{
		Sent:           sent,
		Received:       received,
		FinalEarningsA: FinalEarningsA(r1.EarningsA, received),
		FinalEarningsB: FinalEarningsB(r1.EarningsB, sent),
	}
}
