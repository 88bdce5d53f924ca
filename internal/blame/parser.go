// Package blame turns git blame porcelain output into per-author
// contributor lists.
package blame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dpolishuk/contribgraph/internal/models"
)

// ErrMalformed is returned when porcelain output does not have the expected
// block structure.
var ErrMalformed = errors.New("malformed blame output")

const (
	prefixAuthor     = "author "
	prefixAuthorMail = "author-mail "
)

// Result is the outcome of parsing one blame invocation.
type Result struct {
	Contributors []models.Contributor
	// Warnings lists header lines that were only recognised by the legacy
	// heuristic and not by the porcelain header grammar.
	Warnings []string
}

type commitMeta struct {
	author    string
	hasAuthor bool
	email     *string
}

// Parse reads porcelain or line-porcelain output.
//
// Author metadata is kept per commit: plain porcelain prints it only on the
// first block of a commit, and later blocks for that commit must still be
// credited to its author.
func Parse(output []byte) (*Result, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	acc := newAccumulator()
	commits := make(map[string]*commitMeta)
	result := &Result{}

	var current string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.HasPrefix(line, "\t") {
			if current == "" {
				return nil, fmt.Errorf("%w: line %d: content before any commit header", ErrMalformed, lineNo)
			}
			continue
		}

		if hash, strict, ok := parseHeader(line); ok {
			if !strict {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("line %d: %q accepted as commit header by fallback heuristic", lineNo, hash))
			}
			acc.flush(current, commits[current])
			current = hash
			if commits[hash] == nil {
				commits[hash] = &commitMeta{}
			}
			continue
		}

		if current == "" {
			continue
		}
		meta := commits[current]
		switch {
		case strings.HasPrefix(line, prefixAuthor):
			meta.author = strings.TrimSpace(line[len(prefixAuthor):])
			meta.hasAuthor = true
		case strings.HasPrefix(line, prefixAuthorMail):
			email := stripAngles(strings.TrimSpace(line[len(prefixAuthorMail):]))
			meta.email = &email
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	acc.flush(current, commits[current])
	result.Contributors = acc.contributors()
	return result, nil
}

// parseHeader recognises a block header "<sha> <orig> <final> [<count>]".
// strict is false when only the legacy shape test matched: the 41st byte is
// a space and the first 40 bytes are alphanumeric.
func parseHeader(line string) (hash string, strict bool, ok bool) {
	if isPorcelainHeader(line) {
		return line[:strings.IndexByte(line, ' ')], true, true
	}
	if len(line) > 40 && line[40] == ' ' && isAlnum(line[:40]) {
		return line[:40], false, true
	}
	return "", false, false
}

func isPorcelainHeader(line string) bool {
	fields := strings.Split(line, " ")
	if len(fields) != 3 && len(fields) != 4 {
		return false
	}
	if n := len(fields[0]); (n != 40 && n != 64) || !isHex(fields[0]) {
		return false
	}
	for _, f := range fields[1:] {
		if f == "" || !isDigits(f) {
			return false
		}
	}
	return true
}

func stripAngles(s string) string {
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(s, ">")
	return strings.TrimSpace(s)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// accumulator merges (author, commit) pairs by author name, keeping
// first-seen order for both authors and hashes.
type accumulator struct {
	order  []*models.Contributor
	byName map[string]*models.Contributor
	hashes map[string]map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		byName: make(map[string]*models.Contributor),
		hashes: make(map[string]map[string]struct{}),
	}
}

func (a *accumulator) flush(hash string, meta *commitMeta) {
	if hash == "" || meta == nil || !meta.hasAuthor {
		return
	}

	c, ok := a.byName[meta.author]
	if !ok {
		c = &models.Contributor{Name: meta.author, CommitHashes: []string{}}
		if meta.email != nil {
			email := *meta.email
			c.Email = &email
		}
		a.byName[meta.author] = c
		a.hashes[meta.author] = make(map[string]struct{})
		a.order = append(a.order, c)
	}

	if _, seen := a.hashes[meta.author][hash]; seen {
		return
	}
	a.hashes[meta.author][hash] = struct{}{}
	c.CommitHashes = append(c.CommitHashes, hash)
}

func (a *accumulator) contributors() []models.Contributor {
	out := make([]models.Contributor, 0, len(a.order))
	for _, c := range a.order {
		out = append(out, *c)
	}
	return out
}
