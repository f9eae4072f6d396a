package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type Prompt struct {
	reader *bufio.Reader
}

func NewPrompt(r io.Reader) *Prompt {
	if r == nil {
		r = os.Stdin
	}
	return &Prompt{reader: bufio.NewReader(r)}
}

// ConfirmAction asks for an explicit yes before a destructive step and
// treats anything else, including read errors, as no.
func (p *Prompt) ConfirmAction(action, target string) bool {
	fmt.Printf("\nConfirm running %s for %s (y/N): ", action, target)

	input, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
