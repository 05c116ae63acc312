package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Address(ctx context.Context) error
	Balance(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Note(ctx context.Context) error
	Submit(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Get(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	History(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit", or ctx
// is done. Command errors are printed and the loop continues.
//
//	Without a wallet:  help, connect, history, exit
//	With a wallet:     help, address, balance, upload <path>, note,
//	                   submit <form> [k=v ...], (l)ist, get <id>,
//	                   profile init <id> <goal> | profile show,
//	                   history, disconnect, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("hk> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isConnected() {
				printlnFn("Available commands: address, balance, upload, note, submit, (l)ist, get, profile, history, disconnect, exit")
			} else {
				printlnFn("Available commands: connect, history, exit")
			}

		case "connect":
			err = a.Connect(ctx)

		case "disconnect":
			err = a.Disconnect(ctx)

		case "address":
			err = a.Address(ctx)

		case "balance":
			err = a.Balance(ctx)

		case "upload":
			err = a.Upload(ctx, args)

		case "note":
			err = a.Note(ctx)

		case "submit":
			err = a.Submit(ctx, args)

		case "l", "list":
			err = a.List(ctx)

		case "get":
			if len(args) != 1 {
				printlnFn("Usage: get <id>")
				continue
			}
			err = a.Get(ctx, args)

		case "profile":
			err = a.Profile(ctx, args)

		case "history":
			err = a.History(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
