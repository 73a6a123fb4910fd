package inbound

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Printer serializes writes to the terminal. It doubles as the session
// Notifier, so confirmations land between prompts instead of inside them.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Notify(_ context.Context, msg string) {
	p.Println("» " + msg)
}

func (p *Printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	//nolint:errcheck // terminal output
	fmt.Fprintln(p.out, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	//nolint:errcheck // terminal output
	fmt.Fprintf(p.out, format, a...)
}
