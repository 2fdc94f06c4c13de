package credentials

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
	"golang.org/x/term"
)

//go:generate mockgen -destination=mocks/prompter.go . Prompter

// Prompter asks the user a question and returns the raw answer line.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	// AskSecret is Ask without echoing the answer, where the input allows it.
	AskSecret(ctx context.Context, question string) (string, error)
}

// LinePrompter reads answers line by line. When the input is a terminal,
// secrets are read with echo turned off.
type LinePrompter struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

// NewLinePrompter prompts on out and reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	p := &LinePrompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.isTTY = term.IsTerminal(p.fd)
	}
	return p
}

// Ask implements Prompter.
func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			_, _ = fmt.Fprintln(p.out)
			return "", pkgerrors.ErrNoAnswer
		}
		return "", pkgerrors.Wrap(err, "failed to read answer")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskSecret implements Prompter.
func (p *LinePrompter) AskSecret(ctx context.Context, question string) (string, error) {
	if !p.isTTY {
		return p.Ask(ctx, question)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(p.out, question)
	secret, err := term.ReadPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to read answer")
	}
	return string(secret), nil
}
