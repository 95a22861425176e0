package cli

import (
	"bufio"
	"strings"
)

// cut splits line into its first whitespace-separated word and the
// trimmed remainder.
func cut(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// readMultiline prints prompt and reads lines from scanner until an empty
// line is entered. The collected text is joined with '\n'.
func readMultiline(scanner *bufio.Scanner, prompt string) string {
	printlnFn(prompt + "\n(press Enter on an empty line to finish)")

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
