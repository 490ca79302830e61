package renumber

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/episode-kit/internal/fsops"
)

// Pattern describes the {prefix}{id}.{extension} file naming scheme.
// Prefix matching is case-sensitive, extension matching is not.
type Pattern struct {
	Prefix    string
	Extension string
}

// Candidate is a file whose name carries a parsed numeric id.
type Candidate struct {
	Path string
	Name string
	ID   uint64
}

func (p Pattern) extension() string {
	return strings.TrimPrefix(strings.TrimSpace(p.Extension), ".")
}

// Validate rejects patterns that cannot name a file.
func (p Pattern) Validate() error {
	if p.extension() == "" {
		return errors.New(emptyExtensionErrorMessage)
	}
	if strings.ContainsAny(p.Prefix, `/\`) {
		return fmt.Errorf(prefixSeparatorErrorFormat, p.Prefix)
	}
	return nil
}

// FileName returns the canonical name for position k.
func (p Pattern) FileName(k int) string {
	return fmt.Sprintf("%s%d.%s", p.Prefix, k, p.extension())
}

// Glob renders the pattern for human-readable messages.
func (p Pattern) Glob() string {
	return fmt.Sprintf("%s*.%s", p.Prefix, p.extension())
}

// Match reports whether name carries the configured prefix and extension.
// When it does, the remainder must be non-empty ASCII digits; otherwise the
// returned error explains why the file is skipped.
func (p Pattern) Match(name string) (uint64, bool, error) {
	ext := fsops.SplitExt(name)
	if !strings.EqualFold(strings.TrimPrefix(ext, "."), p.extension()) || ext == "" {
		return 0, false, nil
	}
	stem := strings.TrimSuffix(name, ext)
	if !strings.HasPrefix(stem, p.Prefix) {
		return 0, false, nil
	}
	suffix := stem[len(p.Prefix):]
	if suffix == "" || !isDecimal(suffix) {
		return 0, true, fmt.Errorf("%w: %q", ErrInvalidSuffix, suffix)
	}
	id, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %q: %v", ErrInvalidSuffix, suffix, err)
	}
	return id, true, nil
}

func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
