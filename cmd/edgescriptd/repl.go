package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/orneryd/edgescript/pkg/auth"
	"github.com/orneryd/edgescript/pkg/datamanager"
	"github.com/orneryd/edgescript/pkg/script"
	"github.com/orneryd/edgescript/pkg/storage"
	"github.com/orneryd/edgescript/pkg/wire"
)

// runREPL opens a local store and drops into an interactive loop: each
// line is treated as a single-instruction script run at the fixed root
// "$repl" (shared by every line) and $repl->$output is printed, letting a
// developer poke at the engine without
// standing up the HTTP server.
func runREPL(cmd *cobra.Command, args []string) error {
	dsn, _ := cmd.Flags().GetString("dsn")
	store, err := storage.Open(dsn)
	if err != nil {
		return fmt.Errorf("open store %s: %w", dsn, err)
	}
	defer store.Close()

	dm := datamanager.New(store, auth.NewRoot())

	historyFile := filepath.Join(os.TempDir(), "edgescriptd_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "edgescript> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	fmt.Println("edgescript REPL (root auth) — type a script line, 'tree <json>' for a full script tree, 'commit', or 'exit'")

	ctx := context.Background()
	root := "$repl"

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF (Ctrl-D)
			break
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "commit":
			if err := dm.Commit(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "commit error: %v\n", err)
			} else {
				fmt.Println("committed")
			}
		case strings.HasPrefix(line, "tree "):
			runTreeCommand(ctx, dm, strings.TrimPrefix(line, "tree "))
		default:
			runInstrLine(ctx, dm, root, line)
		}
	}
	return nil
}

func runInstrLine(ctx context.Context, dm *datamanager.DM, root, line string) {
	instrs, err := script.ParseScript(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return
	}
	if err := script.RunInstrs(ctx, dm, root, instrs); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	out, err := dm.Get(ctx, root+"->$output")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading $output: %v\n", err)
		return
	}
	fmt.Printf("%v\n", out)
}

func runTreeCommand(ctx context.Context, dm *datamanager.DM, raw string) {
	var tree wire.ScriptTree
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		fmt.Fprintf(os.Stderr, "invalid script tree JSON: %v\n", err)
		return
	}
	result, err := script.Execute(ctx, dm, tree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	encoded, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(encoded))
}
