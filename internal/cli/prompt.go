package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pendergraft/matchfund/internal/matching"
	"github.com/pendergraft/matchfund/internal/observability/metrics"
	"github.com/pendergraft/matchfund/internal/validation"
)

// cancelInput backs out of an index selection.
const cancelInput = "q"

// errCanceled is returned when the operator enters the cancel sentinel.
var errCanceled = errors.New("canceled")

// Prompter reads operator answers line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// echo repeats each answer when input is piped so transcripts read
	// like an interactive session.
	echo bool
}

// NewPrompter creates a prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		p.echo = true
	}
	return p
}

// Line prints msg and returns the next input line without its line ending.
// io.EOF is returned only when no further input exists.
func (p *Prompter) Line(msg string) (string, error) {
	fmt.Fprint(p.out, msg)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
		}
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if p.echo {
		fmt.Fprintln(p.out, line)
	}
	return line, nil
}

// YesNo asks until the operator answers y or n.
func (p *Prompter) YesNo(msg string) (bool, error) {
	return ask(p, "yes_no", msg+" (y/n): ", validation.ParseYesNo)
}

// ask prompts until parse accepts the answer. Input errors are reported and
// counted, then the question is repeated; other errors end the prompt.
func ask[T any](p *Prompter, field, msg string, parse func(string) (T, error)) (T, error) {
	for {
		line, err := p.Line(msg)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(line)
		if err == nil {
			return v, nil
		}
		if !matching.IsInputError(err) {
			var zero T
			return zero, err
		}
		p.reject(field, err)
	}
}

// askCancelable is ask with the cancel sentinel accepted as an answer.
func askCancelable[T any](p *Prompter, field, msg string, parse func(string) (T, error)) (T, error) {
	return ask(p, field, msg, func(s string) (T, error) {
		if strings.TrimSpace(s) == cancelInput {
			var zero T
			return zero, errCanceled
		}
		return parse(s)
	})
}

func (p *Prompter) reject(field string, err error) {
	metrics.ValidationError(field, matching.Kind(err))
	fmt.Fprintf(p.out, "Error: %v\n", err)
}
