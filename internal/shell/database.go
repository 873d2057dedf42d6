package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stockmaster/internal/db"
)

// Choice is an answer to the missing-database question.
type Choice string

const (
	ChoiceOpen   Choice = "Open"
	ChoiceCreate Choice = "Create"
	ChoiceCancel Choice = "Cancel"
)

// MissingDatabaseQuestion is asked when the configured database file does not exist.
const MissingDatabaseQuestion = "SQLite database not found. Would you like to open an existing SQLite file or create a new one?"

// ErrCancelled is returned when the user declines to pick a database.
var ErrCancelled = errors.New("database selection cancelled")

// Prompter asks the user about the database file.
type Prompter interface {
	Choose(question string, choices []Choice) (Choice, error)
	// OpenFile asks for an existing file. An empty path means the dialog was dismissed.
	OpenFile(title string) (string, error)
	// SaveFile asks where to create a new file, suggesting a default.
	SaveFile(title, suggested string) (string, error)
}

// ResolveDatabase returns the database file to use. An existing file at path is
// used as is; otherwise the user is asked to open another file or create one.
func ResolveDatabase(path string, p Prompter) (string, error) {
	if db.Exists(path) {
		return path, nil
	}
	if p == nil {
		return "", fmt.Errorf("database %s not found", path)
	}

	choice, err := p.Choose(MissingDatabaseQuestion, []Choice{ChoiceOpen, ChoiceCreate, ChoiceCancel})
	if err != nil {
		return "", err
	}
	switch choice {
	case ChoiceOpen:
		selected, err := p.OpenFile("Open SQLite database")
		if err != nil {
			return "", err
		}
		if selected == "" {
			return "", ErrCancelled
		}
		if !db.Exists(selected) {
			return "", fmt.Errorf("database %s not found", selected)
		}
		return selected, nil
	case ChoiceCreate:
		target, err := p.SaveFile("Create SQLite database", path)
		if err != nil {
			return "", err
		}
		if target == "" {
			return "", ErrCancelled
		}
		if err := touch(target); err != nil {
			return "", fmt.Errorf("create database %s: %w", target, err)
		}
		return target, nil
	}
	return "", ErrCancelled
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// AutoPrompter answers without a user: it creates the database at the
// suggested path. It is used when no terminal is attached.
type AutoPrompter struct{}

func (AutoPrompter) Choose(string, []Choice) (Choice, error) { return ChoiceCreate, nil }
func (AutoPrompter) OpenFile(string) (string, error)         { return "", nil }
func (AutoPrompter) SaveFile(_, suggested string) (string, error) {
	return suggested, nil
}
