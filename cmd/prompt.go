package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"leogia-swap/pkg/wallet"
)

// stdinConfirmer asks on the terminal before anything is signed
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinConfirmer() *stdinConfirmer {
	return &stdinConfirmer{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (c *stdinConfirmer) Confirm(ctx context.Context, p wallet.Prompt) error {
	fmt.Fprintf(c.out, "\n  %s\n", color.YellowString(p.Summary))
	fmt.Fprintf(c.out, "\nSign %s transaction? (y/N): ", p.Action)

	answer := make(chan string, 1)
	go func() {
		response, err := c.in.ReadString('\n')
		if err != nil {
			answer <- ""
			return
		}
		answer <- response
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return ctx.Err()
	case response := <-answer:
		response = strings.TrimSpace(strings.ToLower(response))
		if response == "y" || response == "yes" {
			return nil
		}
		return wallet.Rejected(p)
	}
}

// confirmerFor picks the terminal prompt unless --yes was given
func confirmerFor(skip bool) wallet.Confirmer {
	if skip {
		return wallet.AutoConfirm
	}
	return newStdinConfirmer()
}
