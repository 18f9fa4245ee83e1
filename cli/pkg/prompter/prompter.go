package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// input is shared so lines buffered by one prompt are not lost to the next
var (
	input            = bufio.NewReader(os.Stdin)
	output io.Writer = os.Stdout
	stdin            = int(os.Stdin.Fd())
)

// SetIO redirects prompts, for tests and piped use
func SetIO(in io.Reader, out io.Writer) {
	input = bufio.NewReader(in)
	output = out
	stdin = -1
}

func readLine() (string, error) {
	line, err := input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptString reads one trimmed line
func PromptString(label string) (string, error) {
	fmt.Fprint(output, label)
	line, err := readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptPassword reads without echo on a terminal, or a plain line otherwise
func PromptPassword(label string) (string, error) {
	fmt.Fprint(output, label)
	if stdin < 0 || !term.IsTerminal(stdin) {
		return readLine()
	}
	pw, err := term.ReadPassword(stdin)
	fmt.Fprintln(output)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// PromptConfirm asks a yes/no question; anything but y or yes is no
func PromptConfirm(label string) (bool, error) {
	fmt.Fprint(output, label+" (y/n) ")
	line, err := readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// PromptSelect lists options and returns the chosen index, or -1 for a blank answer
func PromptSelect(label string, options []string) (int, error) {
	fmt.Fprintln(output, label)
	for i, opt := range options {
		fmt.Fprintf(output, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(output, "Choice: ")
	line, err := readLine()
	if err != nil {
		return -1, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(options) {
		return -1, fmt.Errorf("choose a number from 1 to %d", len(options))
	}
	return n - 1, nil
}

// PromptMultiline reads lines until a blank line or EOF
func PromptMultiline(label string) (string, error) {
	fmt.Fprintf(output, "%s (finish with an empty line):\n", label)
	var lines []string
	for {
		line, err := input.ReadString('\n')
		text := strings.TrimRight(line, "\r\n")
		if text == "" && err == nil {
			break
		}
		if text != "" {
			lines = append(lines, text)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}
