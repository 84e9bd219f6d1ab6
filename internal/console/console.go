// Package console is the terminal front end of the trust game. It reads one
// answer per line and re-prompts until the answer is usable.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"trustgame/internal/ledger"
	"trustgame/internal/payoff"
	"trustgame/internal/session"
)

// Prompter implements session.Presenter over a line-oriented terminal.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer

	// lines is fed by a single reader goroutine so prompts can give up
	// when their context ends. readErr is valid once lines is closed.
	startReader sync.Once
	lines       chan string
	readErr     error

	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

var _ session.Presenter = (*Prompter)(nil)

// New returns a Prompter reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Prompter {
	r := lipgloss.NewRenderer(out)
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		lines:   make(chan string),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// Title prints the game banner.
func (p *Prompter) Title() {
	fmt.Fprintln(p.out, p.heading.Render(title))
	fmt.Fprintln(p.out, separator)
}

func (p *Prompter) Identifier(ctx context.Context) (string, error) {
	for {
		line, err := p.readLine(ctx, identifierPrompt)
		if err != nil {
			return "", err
		}
		if id := strings.TrimSpace(line); id != "" {
			return id, nil
		}
		fmt.Fprintln(p.out, "Please enter your SONA ID.")
	}
}

func (p *Prompter) RoundOneReturn(ctx context.Context, r1 payoff.RoundOne) (int, error) {
	fmt.Fprintln(p.out, p.heading.Render(fmt.Sprintf(roundOneHeading, r1.Sent)))
	fmt.Fprintf(p.out, roundOneIntro+"\n", r1.Sent, r1.Received)
	return p.readAmount(ctx, fmt.Sprintf(returnPrompt, r1.Received), r1.Received)
}

func (p *Prompter) RoundTwoSend(ctx context.Context, r1 payoff.RoundOne) (int, error) {
	fmt.Fprintln(p.out, separator)
	fmt.Fprintln(p.out, p.heading.Render(roundTwoHeading))
	fmt.Fprintf(p.out, roundTwoIntro+"\n", r1.EarningsA, r1.EarningsB)
	return p.readAmount(ctx, fmt.Sprintf(sendPrompt, r1.EarningsB), r1.EarningsB)
}

func (p *Prompter) RoundTwo(r2 payoff.RoundTwo) {
	fmt.Fprintf(p.out, "Player A receives %s (tripled).\n", p.money(r2.Received))
	fmt.Fprintln(p.out, separator)
}

func (p *Prompter) Saved(ledger.Record) {
	fmt.Fprintln(p.out, p.success.Render("✅ Your responses have been recorded!"))
}

func (p *Prompter) Report(err *session.Error) {
	if err.Kind == session.KindRejected {
		fmt.Fprintln(p.out, p.failure.Render("❌ "+err.Message+". Please use a different ID."))
		return
	}
	fmt.Fprintln(p.out, p.failure.Render("⚠️ "+err.Error()))
}

func (p *Prompter) Results(out session.Outcome) {
	fmt.Fprintln(p.out, p.heading.Render(resultsHeading))
	fmt.Fprintf(p.out, "Player A's Final Earnings: %s\n", p.money(out.RoundTwo.FinalEarningsA))
	fmt.Fprintf(p.out, "Player B's Final Earnings: %s\n", p.money(out.RoundTwo.FinalEarningsB))
	fmt.Fprintln(p.out, separator)
	fmt.Fprintln(p.out, thanks)
}

func (p *Prompter) money(v int) string {
	return "$" + strconv.Itoa(v)
}

func (p *Prompter) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	p.startReader.Do(func() { go p.read() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			if p.readErr != nil {
				return "", p.readErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (p *Prompter) read() {
	defer close(p.lines)
	for p.scanner.Scan() {
		p.lines <- p.scanner.Text()
	}
	p.readErr = p.scanner.Err()
}

// readAmount reads a whole number in [0, limit].
func (p *Prompter) readAmount(ctx context.Context, prompt string, limit int) (int, error) {
	for {
		line, err := p.readLine(ctx, prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(line), "$"))
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a whole number.")
			continue
		}
		if v < 0 || v > limit {
			fmt.Fprintf(p.out, "Please enter an amount between 0 and %d.\n", limit)
			continue
		}
		return v, nil
	}
}
