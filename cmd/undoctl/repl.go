package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"undofile/pkg/undo"
)

// session bundles everything the REPL and the one-shot CLI commands
// act on: the in-memory buffer, the DAG driving it, and where each
// persists to on "save".
type session struct {
	buf          *fileBuffer
	state        *undo.State
	filePath     string
	undoFilePath string
	out          io.Writer
}

// runREPL drives an interactive navigate/leaves/tree/save/quit shell:
// a bufio.Reader prompt loop feeding a small line-based command
// dispatcher, the same shape as a text-editing library's own REPL demo.
func runREPL(s *session) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprintf(s.out, "undoctl: %d heads, seq_cur=%d. Type 'help' for commands.\n", s.state.NumHeads, s.state.SeqCur)

	for {
		fmt.Fprint(s.out, "undoctl> ")

		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}

			return fmt.Errorf("undoctl: prompt: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if quit := dispatch(s, input); quit {
			return nil
		}
	}
}

// dispatch runs one REPL line and reports whether the shell should
// exit.
func dispatch(s *session, input string) (quit bool) {
	fields := strings.Fields(input)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "quit", "exit":
		return true

	case "help":
		printHelp(s.out)

	case "leaves":
		printLeaves(s.out, s.state.ListLeaves())

	case "tree":
		printTree(s.out, s.state)

	case "navigate":
		runNavigate(s, args)

	case "forget":
		if err := s.state.Forget(); err != nil {
			fmt.Fprintf(s.out, "forget failed: %v\n", err)

			return false
		}

		fmt.Fprintln(s.out, "forgot future branch above current position")

	case "save":
		if err := saveSession(s); err != nil {
			fmt.Fprintf(s.out, "save failed: %v\n", err)
		} else {
			fmt.Fprintln(s.out, "saved")
		}

	default:
		fmt.Fprintf(s.out, "unknown command %q; type 'help'\n", cmd)
	}

	return false
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `commands:
  navigate <step> [count|seconds|saves|absolute]   walk the DAG, default mode is count
  leaves                                           list every leaf header
  tree                                              render the DAG as YAML
  forget                                            drop the branch above the current position
  save                                              write the buffer and the undo file back to disk
  quit | exit                                      leave the shell`)
}

func runNavigate(s *session, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "usage: navigate <step> [count|seconds|saves|absolute]")

		return
	}

	step, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "invalid step %q: %v\n", args[0], err)

		return
	}

	mode := undo.ModeCount

	if len(args) >= 2 {
		m, ok := parseMode(args[1])
		if !ok {
			fmt.Fprintf(s.out, "unknown mode %q\n", args[1])

			return
		}

		mode = m
	}

	newSeq, err := s.state.Navigate(step, mode)
	if err != nil {
		fmt.Fprintf(s.out, "navigate failed: %v\n", err)

		return
	}

	fmt.Fprintf(s.out, "seq_cur=%d\n", newSeq)
}

func parseMode(name string) (undo.NavigateMode, bool) {
	switch name {
	case "count":
		return undo.ModeCount, true
	case "seconds":
		return undo.ModeSeconds, true
	case "saves":
		return undo.ModeSaves, true
	case "absolute":
		return undo.ModeAbsolute, true
	default:
		return 0, false
	}
}

func printLeaves(out io.Writer, leaves []undo.LeafInfo) {
	if len(leaves) == 0 {
		fmt.Fprintln(out, "(no leaves)")

		return
	}

	fmt.Fprintf(out, "%-6s %-12s %-8s %-8s\n", "SEQ", "TIME", "CHANGES", "SAVE_NR")

	for _, l := range leaves {
		fmt.Fprintf(out, "%-6d %-12d %-8d %-8d\n", l.Seq, l.Time, l.Changes, l.SaveNr)
	}
}

func printTree(out io.Writer, s *undo.State) {
	enc := yaml.NewEncoder(out)
	defer enc.Close()

	if err := enc.Encode(s.EvalTree()); err != nil {
		fmt.Fprintf(out, "render failed: %v\n", err)
	}
}

func saveSession(s *session) error {
	if err := s.buf.Save(s.filePath); err != nil {
		return err
	}

	return persistUndoFile(s)
}
