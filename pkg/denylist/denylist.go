// Package denylist loads extra known-weak passwords to be merged into the
// built-in password denylist.
package denylist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/jwalitptl/passpolicy/pkg/errors"
)

// Source yields denylist entries.
type Source interface {
	Name() string
	Entries(ctx context.Context) ([]string, error)
}

// FileSource reads one entry per line. Blank lines and lines starting with
// '#' are skipped.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	return "file:" + f.Path
}

func (f FileSource) Entries(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, apperrors.NotFound("denylist file", err)
	}
	defer file.Close()

	return Parse(ctx, file)
}

// Parse reads entries from r in the FileSource format.
func Parse(ctx context.Context, r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read denylist: %w", err)
	}
	return out, nil
}

// Merge lowercases and de-duplicates entries, keeping first-seen order.
func Merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, e := range list {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}
