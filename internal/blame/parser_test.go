package blame

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hashA = strings.Repeat("a", 40)
	hashB = strings.Repeat("b", 40)
	hashC = strings.Repeat("c", 40)
)

// block renders one porcelain block. With an empty author only the header
// and content line are emitted, as git does for an already-described commit.
func block(hash string, line int, author, email, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %d 1\n", hash, line, line)
	if author != "" {
		fmt.Fprintf(&b, "author %s\n", author)
		if email != "" {
			fmt.Fprintf(&b, "author-mail <%s>\n", email)
		}
		b.WriteString("author-time 1700000000\nauthor-tz +0000\n")
		fmt.Fprintf(&b, "committer %s\n", author)
		b.WriteString("committer-time 1700000000\ncommitter-tz +0000\n")
		b.WriteString("summary some change\nfilename x.py\n")
	}
	fmt.Fprintf(&b, "\t%s\n", content)
	return b.String()
}

func TestParse_MergesSameAuthorAcrossCommits(t *testing.T) {
	output := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashB, 2, "Jane Doe", "jane@example.com", "b = 2")

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 1)
	c := result.Contributors[0]
	assert.Equal(t, "Jane Doe", c.Name)
	require.NotNil(t, c.Email)
	assert.Equal(t, "jane@example.com", *c.Email)
	assert.ElementsMatch(t, []string{hashA, hashB}, c.CommitHashes)
}

func TestParse_FlushesTrailingBlock(t *testing.T) {
	output := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashB, 2, "Bob", "bob@example.com", "b = 2")

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 2)
	assert.Equal(t, "Bob", result.Contributors[1].Name)
	assert.Equal(t, []string{hashB}, result.Contributors[1].CommitHashes)
}

func TestParse_SingleBlock(t *testing.T) {
	result, err := Parse([]byte(block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1")))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 1)
	assert.Equal(t, []string{hashA}, result.Contributors[0].CommitHashes)
}

func TestParse_DeduplicatesRepeatedCommit(t *testing.T) {
	output := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashA, 2, "", "", "b = 2") +
		block(hashA, 3, "", "", "c = 3")

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 1)
	assert.Equal(t, []string{hashA}, result.Contributors[0].CommitHashes)
}

func TestParse_RepeatedCommitKeepsItsOwnAuthor(t *testing.T) {
	output := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashB, 2, "Bob", "bob@example.com", "b = 2") +
		block(hashA, 3, "", "", "c = 3")

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 2)
	assert.Equal(t, "Jane Doe", result.Contributors[0].Name)
	assert.Equal(t, []string{hashA}, result.Contributors[0].CommitHashes)
	assert.Equal(t, "Bob", result.Contributors[1].Name)
	assert.Equal(t, []string{hashB}, result.Contributors[1].CommitHashes)
}

func TestParse_FirstSeenEmailWins(t *testing.T) {
	output := block(hashA, 1, "Jane Doe", "jane@work.example", "a = 1") +
		block(hashB, 2, "Jane Doe", "jane@home.example", "b = 2")

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Contributors, 1)
	require.NotNil(t, result.Contributors[0].Email)
	assert.Equal(t, "jane@work.example", *result.Contributors[0].Email)
}

func TestParse_EmailHandling(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *string
	}{
		{"bracketed", "author-mail <jane@example.com>", strPtr("jane@example.com")},
		{"padded", "author-mail   < jane@example.com >  ", strPtr("jane@example.com")},
		{"bare", "author-mail jane@example.com", strPtr("jane@example.com")},
		{"empty brackets", "author-mail <>", strPtr("")},
		{"absent", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := hashA + " 1 1 1\nauthor Jane Doe\n"
			if tt.line != "" {
				output += tt.line + "\n"
			}
			output += "\ta = 1\n"

			result, err := Parse([]byte(output))
			require.NoError(t, err)
			require.Len(t, result.Contributors, 1)
			assert.Equal(t, tt.want, result.Contributors[0].Email)
		})
	}
}

func TestParse_AuthorIsTrimmed(t *testing.T) {
	output := hashA + " 1 1 1\nauthor   Jane Doe  \n\ta = 1\n"

	result, err := Parse([]byte(output))
	require.NoError(t, err)
	require.Len(t, result.Contributors, 1)
	assert.Equal(t, "Jane Doe", result.Contributors[0].Name)
}

func TestParse_CommitWithoutAuthorIsSkipped(t *testing.T) {
	output := hashA + " 1 1 1\nsummary nothing\n\ta = 1\n"

	result, err := Parse([]byte(output))
	require.NoError(t, err)
	assert.Empty(t, result.Contributors)
	assert.NotNil(t, result.Contributors)
}

func TestParse_EmptyOutput(t *testing.T) {
	result, err := Parse(nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Contributors)
	assert.Empty(t, result.Contributors)
	assert.Empty(t, result.Warnings)
}

func TestParse_ContentBeforeHeader(t *testing.T) {
	_, err := Parse([]byte("\ta = 1\n" + block(hashA, 1, "Jane Doe", "", "a = 1")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParse_MetadataLinesAreNotHeaders(t *testing.T) {
	output := hashA + " 1 1 1\n" +
		"author Jane Doe\n" +
		"previous " + hashC + " x.py\n" +
		"summary " + hashB + " 1 1 1\n" +
		"boundary\n" +
		"\ta = 1\n"

	result, err := Parse([]byte(output))
	require.NoError(t, err)
	require.Len(t, result.Contributors, 1)
	assert.Equal(t, []string{hashA}, result.Contributors[0].CommitHashes)
	assert.Empty(t, result.Warnings)
}

func TestParse_FallbackHeaderIsFlagged(t *testing.T) {
	odd := strings.Repeat("z", 40)
	output := block(hashA, 1, "Jane Doe", "", "a = 1") +
		odd + " unexpected trailer\nauthor Bob\n\tb = 2\n"

	result, err := Parse([]byte(output))
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], odd)
	require.Len(t, result.Contributors, 2)
	assert.Equal(t, []string{odd}, result.Contributors[1].CommitHashes)
}

func TestParse_SHA256Header(t *testing.T) {
	long := strings.Repeat("d", 64)
	output := long + " 1 1 1\nauthor Jane Doe\n\ta = 1\n"

	result, err := Parse([]byte(output))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Contributors, 1)
	assert.Equal(t, []string{long}, result.Contributors[0].CommitHashes)
}

func TestParse_LinePorcelainMatchesPorcelain(t *testing.T) {
	porcelain := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashB, 2, "Bob", "bob@example.com", "b = 2") +
		block(hashA, 3, "", "", "c = 3")
	linePorcelain := block(hashA, 1, "Jane Doe", "jane@example.com", "a = 1") +
		block(hashB, 2, "Bob", "bob@example.com", "b = 2") +
		block(hashA, 3, "Jane Doe", "jane@example.com", "c = 3")

	p, err := Parse([]byte(porcelain))
	require.NoError(t, err)
	lp, err := Parse([]byte(linePorcelain))
	require.NoError(t, err)
	assert.Equal(t, p.Contributors, lp.Contributors)
}

func TestParse_Deterministic(t *testing.T) {
	output := block(hashC, 1, "Carol", "carol@example.com", "a") +
		block(hashA, 2, "Jane Doe", "jane@example.com", "b") +
		block(hashB, 3, "Carol", "carol@example.com", "c")

	first, err := Parse([]byte(output))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Parse([]byte(output))
		require.NoError(t, err)
		assert.Equal(t, first.Contributors, again.Contributors)
	}
	assert.Equal(t, "Carol", first.Contributors[0].Name)
	assert.Equal(t, []string{hashC, hashB}, first.Contributors[0].CommitHashes)
}

func strPtr(s string) *string { return &s }
