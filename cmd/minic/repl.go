package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/hassan/minic/internal/parser"
)

const (
	historyFile = ".minic_history"
	promptMain  = "mini> "
	promptCont  = "....> "
)

const banner = `mini REPL
Enter a whole program (program name; ... end). Ctrl+D exits, :quit too.`

// repl reads programs with line editing and runs each one as it becomes
// complete.
func repl(stdout, stderr io.Writer) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintln(stdout, banner)
	for {
		src, ok := readProgram(ln.Prompt)
		if !ok {
			fmt.Fprintln(stdout)
			return exitOK
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(src)

		module, err := compile("<stdin>", src, nil, stderr, nil)
		if err != nil {
			continue
		}
		if code := execute(module, stdout, stderr); code != exitOK {
			fmt.Fprintf(stderr, "exit status %d\n", code)
		}
		fmt.Fprintln(stdout)
	}
}

// readProgram collects lines until they parse as a whole program or fail
// for a reason other than missing input. It returns false at end of input.
// next prompts for one line; an aborted prompt drops what was collected.
func readProgram(next func(prompt string) (string, error)) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := next(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() == 0 && strings.TrimSpace(line) == ":quit" {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, errs := parser.Parse(src, "<stdin>"); len(errs) == 0 || !parser.Incomplete(errs) {
			return src, true
		}
	}
}
