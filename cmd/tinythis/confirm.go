package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// confirm prints a y/N prompt and reads one line from stdin. Anything
// other than an explicit yes counts as no.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	return parseYes(line)
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
