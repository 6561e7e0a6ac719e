package ton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testPrefix = "onton_order="

func TestExtractCorrelationId(t *testing.T) {
	id, ok := ExtractCorrelationId("onton_order=123e4567-e89b-12d3-a456-426614174000", testPrefix)
	assert.True(t, ok)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id)

	// Surrounding whitespace after the prefix is tolerated
	id, ok = ExtractCorrelationId("onton_order= 123e4567-e89b-12d3-a456-426614174000 ", testPrefix)
	assert.True(t, ok)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id)

	// Uppercase UUIDs are canonicalized
	id, ok = ExtractCorrelationId("onton_order=123E4567-E89B-12D3-A456-426614174000", testPrefix)
	assert.True(t, ok)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", id)
}

func TestExtractCorrelationIdRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"onton_order=",
		"onton_order=not-a-uuid",
		"onton_order=123e4567-e89b-12d3-a456",
		"order=123e4567-e89b-12d3-a456-426614174000",
		" onton_order=123e4567-e89b-12d3-a456-426614174000",
	}
	for _, comment := range cases {
		_, ok := ExtractCorrelationId(comment, testPrefix)
		assert.False(t, ok, "comment %q should not parse", comment)
	}
}

func TestParseMergeComment(t *testing.T) {
	wallet := "0:0000000000000000000000000000000000000000000000000000000000000000"

	request, ok := ParseMergeComment("onton_merge="+wallet+":7:11:42", "onton_merge=")
	assert.True(t, ok)
	assert.Equal(t, wallet, request.WalletAddress)
	assert.Equal(t, int64(7), request.GoldIndex)
	assert.Equal(t, int64(11), request.SilverIndex)
	assert.Equal(t, int64(42), request.BronzeIndex)
}

func TestParseMergeCommentRejectsMalformed(t *testing.T) {
	wallet := "0:0000000000000000000000000000000000000000000000000000000000000000"

	cases := []string{
		"",
		"onton_merge=",
		"onton_merge=" + wallet,
		"onton_merge=" + wallet + ":1:2",
		"onton_merge=" + wallet + ":1:2:3:4",
		"onton_merge=" + wallet + ":1:2:x",
		"onton_merge=" + wallet + ":1:-2:3",
		"onton_merge=not-an-address:1:2:3",
	}
	for _, comment := range cases {
		_, ok := ParseMergeComment(comment, "onton_merge=")
		assert.False(t, ok, "comment %q should not parse", comment)
	}
}
