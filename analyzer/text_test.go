package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleText(t *testing.T) {
	assert.Equal(t, "Keo & vữa", VisibleText("<p class='x'>Keo &amp; <b>vữa</b></p>"))
	assert.Equal(t, "a < b", VisibleText("a &lt; b"))
	// Unterminated tags are left alone
	assert.Equal(t, "text <broken", VisibleText("text <broken"))
}

func TestWordCountAndReadingTime(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("<p>one</p> two\n\tthree"))

	cases := []struct {
		words int
		want  int
	}{
		{0, 1}, {99, 1}, {299, 1}, {300, 2}, {499, 2}, {500, 2}, {501, 3}, {700, 4}, {1000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReadingTime(strings.Repeat("w ", tc.words)), "%d words", tc.words)
	}
}

func TestHeadingAndParagraphCounts(t *testing.T) {
	content := `<h1>x</h1><H2>Upper</H2><h2 id="a">a</h2><h3>b</h3><h5>c</h5><p>1</p><p class="lead">2</p><pre>no</pre>`
	assert.Equal(t, []string{"a", "b"}, subHeadings(content)[1:])
	assert.Len(t, subHeadings(content), 3)
	assert.Equal(t, 3, countHeadings(content))
	assert.Equal(t, 2, countParagraphs(content))
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 12, runeLen("keo dán gạch"))
	assert.Equal(t, 0, runeLen(""))
}
