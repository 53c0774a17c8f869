package body

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

// StdinUserInput backs user_input for the CLI's direct-run mode.
type StdinUserInput struct {
	reader *bufio.Reader
}

// NewStdinUserInput builds a UserInput reading from the process's stdin.
func NewStdinUserInput() *StdinUserInput {
	return &StdinUserInput{reader: bufio.NewReader(os.Stdin)}
}

// isTerminal reports whether stdin is an interactive terminal rather than a
// pipe or redirected file. A scripted run feeding answers through a pipe
// doesn't want prompt text interleaved with its own captured output.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (s *StdinUserInput) Ask(ctx context.Context, prompt string) (string, error) {
	if isTerminal() {
		fmt.Print(prompt)
	}
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := s.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// ChannelUserInput backs user_input for the deployment server: answers
// arrive asynchronously over a WS-fed channel keyed by a correlation id
// the caller supplies out of band.
type ChannelUserInput struct {
	prompts chan<- string
	answers <-chan string
}

// NewChannelUserInput builds a UserInput bridging the server's WS event
// stream: prompts are pushed onto prompts, answers are read off answers.
func NewChannelUserInput(prompts chan<- string, answers <-chan string) *ChannelUserInput {
	return &ChannelUserInput{prompts: prompts, answers: answers}
}

func (c *ChannelUserInput) Ask(ctx context.Context, prompt string) (string, error) {
	select {
	case c.prompts <- prompt:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case answer := <-c.answers:
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
