package pdfdoc

import (
	"bufio"
	"strings"
)

// heuristicTitleAndAuthors guesses the title and author line from the first
// non-empty lines of the extracted text.
func heuristicTitleAndAuthors(text string) (string, string) {
	s := bufio.NewScanner(strings.NewReader(text))
	nonEmpty := make([]string, 0, 4)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		nonEmpty = append(nonEmpty, line)
		if len(nonEmpty) == 4 {
			break
		}
	}
	title := ""
	authors := ""
	if len(nonEmpty) > 0 {
		title = nonEmpty[0]
	}
	if len(nonEmpty) > 1 {
		authors = nonEmpty[1]
	}
	return title, authors
}
