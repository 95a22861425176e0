package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	entity(name string) (entityCommands, bool)
	entityNames() []string
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Feature(ctx context.Context, args []string) error
	Wipe(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the bizkeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Commands
//
//	<entity> list                 list live records
//	<entity> add [json]           create a record (JSON prompted when omitted)
//	<entity> update <id> [json]   merge JSON fields into a record
//	<entity> delete <id>          delete a record
//	sync                          reconcile every entity type now
//	status                        show sync status
//	login <token> | logout        sign in with a token, sign out
//	feature [<name> on|off|reset]  list or toggle feature flags
//	wipe yes                      delete all local data
//	help | exit | quit
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bk %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		cmd, rest := cut(scanner.Text())
		if cmd == "" {
			continue
		}

		var err error
		switch cmd {
		case "help":
			printlnFn("Entities: " + strings.Join(a.entityNames(), ", "))
			printlnFn("Available commands: <entity> list|add|update|delete, sync, status, login, logout, feature, wipe, exit")

		case "sync":
			err = a.Sync(ctx)

		case "status":
			err = a.Status(ctx)

		case "login":
			if rest == "" {
				printlnFn("Usage: login <token>")
				continue
			}
			err = a.Login(ctx, rest)

		case "logout":
			err = a.Logout(ctx)

		case "feature":
			err = a.Feature(ctx, strings.Fields(rest))

		case "wipe":
			if rest != "yes" {
				printlnFn("This deletes every local record, including unsynced ones. Type 'wipe yes' to confirm.")
				continue
			}
			err = a.Wipe(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			e, ok := a.entity(cmd)
			if !ok {
				printlnFn("Unknown command:", cmd)
				continue
			}
			err = runEntity(ctx, e, rest, scanner)
		}

		if err != nil {
			printError(err)
		}
	}
}

func runEntity(ctx context.Context, e entityCommands, rest string, scanner *bufio.Scanner) error {
	sub, args := cut(rest)

	switch sub {
	case "", "l", "list":
		return e.List(ctx)

	case "add":
		if args == "" {
			args = readMultiline(scanner, "Enter "+e.Name()+" JSON")
		}
		return e.Add(ctx, []byte(args))

	case "update":
		id, body := cut(args)
		if id == "" {
			return fmt.Errorf("%w: %s update <id> [json]", errUsage, e.Name())
		}
		if body == "" {
			body = readMultiline(scanner, "Enter fields to change as JSON")
		}
		return e.Update(ctx, id, []byte(body))

	case "delete":
		if args == "" {
			return fmt.Errorf("%w: %s delete <id>", errUsage, e.Name())
		}
		return e.Delete(ctx, args)

	default:
		return fmt.Errorf("%w: %s list|add|update|delete", errUsage, e.Name())
	}
}

func printError(err error) {
	if errors.Is(err, errUsage) {
		printlnFn("Usage:", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return
	}
	printlnFn("Error:", err.Error())
}
