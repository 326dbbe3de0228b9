package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDDeterminism(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, "zd-12345", ID("zd", "12345"))
		assert.Equal(t, "fd-agent-7", AgentID("fd", "7"))
	}
}

func TestAgentIDDistinctFromUserID(t *testing.T) {
	assert.NotEqual(t, ID("zd", "42"), AgentID("zd", "42"))
}

func TestOrgIDFromName(t *testing.T) {
	a := OrgIDFromName("hs", "Acme Corp")
	b := OrgIDFromName("hs", "  acme corp ")
	c := OrgIDFromName("hs", "Acme Corporation")

	assert.Equal(t, a, b, "case and whitespace variants should merge")
	assert.NotEqual(t, a, c, "different names should fork")

	// Stable across calls and across source prefixes.
	assert.Equal(t, a, OrgIDFromName("hs", "Acme Corp"))
	assert.NotEqual(t, a, OrgIDFromName("ky", "Acme Corp"))
}
