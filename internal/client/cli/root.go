package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	address, err := a.pipeline.Address()
	if err != nil {
		return "(no wallet)"
	}
	if len(address) > 8 {
		address = address[:4] + ".." + address[len(address)-4:]
	}
	return fmt.Sprintf("(%s)", address)
}

// Root runs the interactive loop on stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to HealthKey (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
