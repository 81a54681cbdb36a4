package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams over x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type lineResult struct {
	line string
	err  error
}

// lineReader hands out input lines one caller at a time. A caller whose
// context ends gives up its turn without consuming anything: a line that
// arrives for it afterwards goes to the next caller.
type lineReader struct {
	reader *bufio.Reader
	turn   chan struct{}
	// pending is non-nil while a read started for an earlier caller has
	// not been delivered yet. Only touched while holding turn.
	pending chan lineResult
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(r),
		turn:   make(chan struct{}, 1),
	}
}

// acquire waits for the reader's turn or ctx, whichever comes first.
func (l *lineReader) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lineReader) release() { <-l.turn }

// ReadLine returns the next trimmed line. If EOF occurs after some input was
// read, the partial line is returned.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer l.release()
	return l.readLocked(ctx)
}

func (l *lineReader) readLocked(ctx context.Context) (string, error) {
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			line, err := readLine(l.reader)
			ch <- lineResult{line: line, err: err}
		}()
	}

	select {
	case r := <-l.pending:
		if ctx.Err() != nil {
			// arrived together with cancellation: keep it for the next caller
			l.pending <- r
			return "", ctx.Err()
		}
		l.pending = nil
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetSimpleText prints a prompt to w and reads a single line of input.
// The trailing newline is trimmed.
func GetSimpleText(ctx context.Context, in *lineReader, prompt string, w io.Writer) (string, error) {
	if err := in.acquire(ctx); err != nil {
		return "", err
	}
	defer in.release()

	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	return in.readLocked(ctx)
}

// GetPin prints prompt and reads a PIN without echo when stdin is a
// terminal. Piped input is read as a plain line, and so is a terminal line
// whose read is already under way.
func GetPin(ctx context.Context, in *lineReader, prompt string, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return GetSimpleText(ctx, in, prompt, w)
	}

	if err := in.acquire(ctx); err != nil {
		return "", err
	}
	defer in.release()

	if in.pending != nil {
		if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
			return "", err
		}
		return in.readLocked(ctx)
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pin, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pin)), nil
}

// Confirm asks a yes/no question. Anything but y/yes is a no.
func Confirm(ctx context.Context, in *lineReader, question string, w io.Writer) (bool, error) {
	answer, err := GetSimpleText(ctx, in, question+" [y/N]", w)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
