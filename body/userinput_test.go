package body

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
)

func TestStdinUserInputAskReadsLine(t *testing.T) {
	s := &StdinUserInput{reader: bufio.NewReader(strings.NewReader("hello\n"))}

	line, err := s.Ask(context.Background(), "question? ")
	if err != nil {
		t.Fatal(err)
	}
	if line != "hello\n" {
		t.Fatalf("expected %q, got %q", "hello\n", line)
	}
}

func TestStdinUserInputAskRespectsContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	s := &StdinUserInput{reader: bufio.NewReader(pr)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Ask(ctx, "question? ")
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}
