// Package procmailrc renders email addresses into a procmail allowlist
// recipe and writes it out.
//
// The generated text is meant to be INCLUDERC'd from a procmailrc. It holds a
// single recipe whose conditions are OR'ed together with the score trick
// described at http://pm-doc.sourceforge.net/doc/#oring_and_score_recipe:
// every condition adds a huge weight to the score, so the first matching From
// header makes the recipe fire.
package procmailrc

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/migadu/abook2procmail/consts"
	"github.com/migadu/abook2procmail/pkg/errors"
)

const (
	ScoreVariable = "A2P_SUPREME"
	ScoreValue    = "9876543210"
	RecipeStart   = ":0"

	// DefaultAction delivers to the default mailbox.
	DefaultAction = "$MAILDIR"
)

// EscapeAddress escapes the dots of addr so procmail matches them literally.
func EscapeAddress(addr string) string {
	return strings.ReplaceAll(addr, ".", `\.`)
}

// FilterLine renders the recipe condition matching a From header that
// contains addr, with or without angle brackets.
func FilterLine(addr string) string {
	return fmt.Sprintf("*$ $%s^0 ^From.*<?%s>?$", ScoreVariable, EscapeAddress(addr))
}

// RuleSet is one rendered allowlist recipe.
type RuleSet struct {
	Conditions []string
	Action     string
}

// NewRuleSet renders a condition for every address and sorts them. The order
// only helps humans reading the file; procmail stops at the first match
// either way.
func NewRuleSet(addrs []string, action string) *RuleSet {
	conditions := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		conditions = append(conditions, FilterLine(addr))
	}
	sort.Strings(conditions)

	return &RuleSet{
		Conditions: conditions,
		Action:     action,
	}
}

// Header returns the score assignment, an empty line and the recipe start.
func Header() []string {
	return []string{
		ScoreVariable + "=" + ScoreValue,
		"",
		RecipeStart,
	}
}

// Lines returns the complete file content line by line.
func (rs *RuleSet) Lines() []string {
	header := Header()
	lines := make([]string, 0, len(header)+len(rs.Conditions)+1)
	lines = append(lines, header...)
	lines = append(lines, rs.Conditions...)
	return append(lines, rs.Action)
}

// String joins Lines with newlines. There is no trailing newline.
func (rs *RuleSet) String() string {
	return strings.Join(rs.Lines(), "\n")
}

// WriteFile creates or truncates path and writes rs to it.
func WriteFile(path string, rs *RuleSet) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			return errors.NewPathError("write", path, consts.ErrOutputPermissionDenied, err)
		}
		return errors.NewPathError("write", path, consts.ErrOutputWriteFailure, err)
	}

	if _, err := io.WriteString(f, rs.String()); err != nil {
		f.Close()
		return errors.NewPathError("write", path, consts.ErrOutputWriteFailure, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewPathError("close", path, consts.ErrOutputWriteFailure, err)
	}
	return nil
}

// Output writes rs to path, or to stdout followed by a newline when path is
// empty.
func Output(path string, rs *RuleSet, stdout io.Writer) error {
	if path != "" {
		return WriteFile(path, rs)
	}

	if _, err := io.WriteString(stdout, rs.String()+"\n"); err != nil {
		return errors.NewPathError("write", "<stdout>", consts.ErrOutputWriteFailure, err)
	}
	return nil
}
