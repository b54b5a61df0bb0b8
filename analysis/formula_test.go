package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNestingDepth(t *testing.T) {
	assert.Equal(t, 0, NestingDepth("A1+B1"))
	assert.Equal(t, 1, NestingDepth("SUM(A1:A3)"))
	assert.Equal(t, 3, NestingDepth("IF(AND(A1>0,OR(B1,C1)),1,0)"))
	// Unbalanced closers saturate instead of going negative.
	assert.Equal(t, 2, NestingDepth("))(("))
}

func TestIFNestingDepth(t *testing.T) {
	assert.Equal(t, 0, IFNestingDepth("SUM(A1:A3)"))
	assert.Equal(t, 1, IFNestingDepth("IF(A1,1,0)"))
	assert.Equal(t, 2, IFNestingDepth("IF(A1,IF(B1,1,2),0)"))
	assert.Equal(t, 3, IFNestingDepth("IF(A1,IF(B1,IF(C1,1,2),3),0)"))
	// Substrings of other identifiers do not count.
	assert.Equal(t, 0, IFNestingDepth("COUNTIF(A1:A9,5)"))
	assert.Equal(t, 0, IFNestingDepth("SUMIF(A1:A9,5)"))
	assert.Equal(t, 1, IFNestingDepth("if(a1,1,0)"))
}

func TestStripStrings(t *testing.T) {
	assert.Equal(t, "IF(A1=,1,2)", StripStrings(`IF(A1="x",1,2)`))
	assert.Equal(t, "A1+B1", StripStrings("A1+B1"))
	assert.Equal(t, "CONCAT(,)", StripStrings(`CONCAT("1.5","2.5")`))
}

func TestExternalBookTokens(t *testing.T) {
	assert.Equal(t, []string{"[1]"}, ExternalBookTokens("[1]Sheet1!A1*2"))
	assert.Equal(t, []string{"[Book2.xlsx]"}, ExternalBookTokens("'[Book2.xlsx]Prices'!B2"))
	// ODS-internal bracket forms are not external books.
	assert.Empty(t, ExternalBookTokens("SUM([.A1:.B2])"))
	assert.Empty(t, ExternalBookTokens("[$Sheet2.A1]"))
	assert.Empty(t, ExternalBookTokens("A1*[#REF!]"))
	// Brackets inside string literals are text.
	assert.Empty(t, ExternalBookTokens(`CONCAT("[1] not a link",A1)`))
	// Doubled quotes stay inside the string.
	assert.Empty(t, ExternalBookTokens(`"say ""[2]"" here"`))
}

func TestExternalIndexRefs(t *testing.T) {
	assert.Equal(t, []int{0}, ExternalIndexRefs("[1]Sheet1!A1"))
	assert.Equal(t, []int{2, 0}, ExternalIndexRefs("[3]S!A1+[1]S!B2"))
	assert.Empty(t, ExternalIndexRefs("[0]S!A1"))
	assert.Empty(t, ExternalIndexRefs("SUM(A1:B2)"))
}
