package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ErrNoInput is returned by Read when no file was given and stdin is a terminal.
var ErrNoInput = fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe input")

// FileReader decodes a T from the --file flag or from piped stdin. Files
// ending in .yaml or .yml are decoded as YAML; everything else as JSON.
type FileReader[T any] struct {
	fileFlagValue string
	stdin         io.Reader
	isTerminal    func() bool
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON or YAML file (reads JSON from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// HasInput reports whether Read has something to decode without prompting.
func (fr *FileReader[T]) HasInput() bool {
	return fr.fileFlagValue != "" || !fr.stdinIsTerminal()
}

func (fr *FileReader[T]) Read() (T, error) {
	var input T

	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()

		ext := strings.ToLower(filepath.Ext(fr.fileFlagValue))
		if ext == ".yaml" || ext == ".yml" {
			if err := yaml.NewDecoder(f).Decode(&input); err != nil {
				return input, fmt.Errorf("decode YAML: %w", err)
			}
			return input, nil
		}

		return decodeJSON[T](f)
	}

	if fr.stdinIsTerminal() {
		return input, ErrNoInput
	}

	return decodeJSON[T](fr.reader())
}

func (fr *FileReader[T]) reader() io.Reader {
	if fr.stdin != nil {
		return fr.stdin
	}
	return os.Stdin
}

func (fr *FileReader[T]) stdinIsTerminal() bool {
	if fr.isTerminal != nil {
		return fr.isTerminal()
	}
	if fr.stdin != nil {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var input T
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}
	return input, nil
}
