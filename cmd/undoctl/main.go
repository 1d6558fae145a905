// Command undoctl inspects and drives a persisted undo file against a
// plain text file, either as a one-shot navigation or as an
// interactive shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"undofile/internal/config"
	"undofile/pkg/fs"
	"undofile/pkg/undo"
	"undofile/pkg/undofile"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "undoctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("undoctl", flag.ContinueOnError)

	filePath := flags.String("file", "", "text file to drive undo/redo against (required)")
	undoFileFlag := flags.String("undo-file", "", "explicit undo file path (default: search --undodir)")
	globalConfig := flags.String("global-config", "", "path to the global host config file")
	projectConfig := flags.String("project-config", "", "path to the project host config file")
	shell := flags.Bool("shell", false, "launch the interactive navigate/leaves/tree shell")
	count := flags.Int("count", 0, "one-shot: navigate by sequence-number count")
	seconds := flags.Int("seconds", 0, "one-shot: navigate by elapsed seconds")
	saves := flags.Int("saves", 0, "one-shot: navigate by save-count steps")
	absolute := flags.Int("absolute", -1, "one-shot: navigate to an absolute sequence number")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *filePath == "" {
		return errors.New("--file is required")
	}

	cfg, err := config.Load(fs.NewReal(), *globalConfig, *projectConfig, config.Overrides{})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	undoPath := *undoFileFlag
	if undoPath == "" {
		undoPath, err = config.UndoFilePath(fs.NewReal(), cfg.UndoDirs, *filePath)
		if err != nil {
			return fmt.Errorf("resolve undo file path: %w", err)
		}
	}

	buf, err := loadFileBuffer(*filePath)
	if err != nil {
		return err
	}

	state := undo.New(buf, &noopCursor{}, noopExtmarks{}, cliPolicy{cfg: cfg})

	if exists, existsErr := fs.NewReal().Exists(undoPath); existsErr == nil && exists {
		if err := undofile.NewReader(fs.NewReal()).Read(undoPath, state); err != nil {
			return fmt.Errorf("read undo file %q: %w", undoPath, err)
		}
	}

	s := &session{buf: buf, state: state, filePath: *filePath, undoFilePath: undoPath, out: out}

	if *shell {
		return runREPL(s)
	}

	switch {
	case *absolute >= 0:
		return oneShotNavigate(s, *absolute, undo.ModeAbsolute)
	case *seconds != 0:
		return oneShotNavigate(s, *seconds, undo.ModeSeconds)
	case *saves != 0:
		return oneShotNavigate(s, *saves, undo.ModeSaves)
	case *count != 0:
		return oneShotNavigate(s, *count, undo.ModeCount)
	default:
		printLeaves(s.out, s.state.ListLeaves())

		return nil
	}
}

func oneShotNavigate(s *session, step int, mode undo.NavigateMode) error {
	newSeq, err := s.state.Navigate(step, mode)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	fmt.Fprintf(s.out, "seq_cur=%d\n", newSeq)

	return saveSession(s)
}

// persistUndoFile writes s.state to s.undoFilePath, tolerating a
// buffer with no undoable changes ever recorded rather than treating
// it as an error, mirroring the source's own write-skip.
func persistUndoFile(s *session) error {
	err := undofile.NewWriter(fs.NewReal()).Write(s.undoFilePath, s.state)
	if err != nil && !errors.Is(err, undofile.ErrNothingToPersist) {
		return fmt.Errorf("write undo file %q: %w", s.undoFilePath, err)
	}

	return nil
}
