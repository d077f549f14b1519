package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Remove(ctx context.Context) error
	Quantity(ctx context.Context) error
	Coupon(ctx context.Context) error
	Credits(ctx context.Context) error
	Checkout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on a. The loop exits on scanner EOF or
// when the user types "exit" or "quit". Command errors are ignored here;
// handlers print their own messages.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("shop %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, add, remove, qty, coupon, credits, checkout, logout, exit")
			} else {
				printlnFn("Available commands: (l)ist, add, remove, qty, coupon, checkout, register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "add":
			_ = a.Add(ctx)

		case "remove":
			_ = a.Remove(ctx)

		case "qty":
			_ = a.Quantity(ctx)

		case "coupon":
			_ = a.Coupon(ctx)

		case "credits":
			_ = a.Credits(ctx)

		case "checkout":
			_ = a.Checkout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", parts[0])
		}
	}
}
