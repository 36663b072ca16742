package domain

import "strings"

// TrimTrailingLines drops the last n lines of text and rejoins the rest with
// "\n". A trailing newline does not count as an extra empty line and "\r" line
// endings are stripped. Text with n or fewer lines trims to "". n <= 0 returns
// text unchanged.
func TrimTrailingLines(text string, n int) string {
	if n <= 0 {
		return text
	}
	lines := splitLines(text)
	if len(lines) <= n {
		return ""
	}
	return strings.Join(lines[:len(lines)-n], "\n")
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
