package terminal

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

// ReadUserInput reads a line of input from the user
func ReadUserInput() (string, error) {
	input, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadField prompts for and reads a single field
func ReadField(prompt string) (string, error) {
	fmt.Print(prompt)
	return ReadUserInput()
}

// ReadPassword prompts for a password without echoing it. Falls back to
// plain line reading when stdin is not a terminal (piped input in tests
// and scripts).
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ReadUserInput()
	}

	data, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
