package create

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/venvman/venvman/internal/messages"
)

// ErrDeclined reports that the user declined a confirmation. It maps to a
// clean exit with status 1, not an error report.
var ErrDeclined = errors.New(messages.PromptDeclined)

// Prompter asks the user to confirm rebuilding an existing environment.
type Prompter interface {
	ConfirmRebuild(path string) (bool, error)
}

// HuhPrompter implements Prompter with a charmbracelet/huh confirm form.
type HuhPrompter struct {
	isTerminal func() bool
	runForm    func(form *huh.Form) error
}

// NewHuhPrompter returns a Prompter using the default terminal check.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		isTerminal: defaultIsTerminal,
		runForm:    func(form *huh.Form) error { return form.Run() },
	}
}

func defaultIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ConfirmRebuild asks whether path should be rebuilt. Without a terminal the
// prompt cannot be answered, so the caller must be told to pass --force.
func (p *HuhPrompter) ConfirmRebuild(path string) (bool, error) {
	if !p.isTerminal() {
		return false, fmt.Errorf(messages.PromptRequiresTerminal)
	}
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf(messages.PromptOverwriteFmt, path)).
			Value(&confirmed),
	))
	if err := p.runForm(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}
