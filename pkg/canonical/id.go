package canonical

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// ID derives the canonical record ID {sourcePrefix}-{externalId}. It is a
// pure function of its inputs so the same source record always maps to the
// same canonical ID across runs.
func ID(sourcePrefix, externalID string) string {
	return sourcePrefix + "-" + externalID
}

// AgentID derives the ID for agents harvested from a users endpoint and
// reused as Customers, keeping them distinct from end-user IDs.
func AgentID(sourcePrefix, externalID string) string {
	return sourcePrefix + "-agent-" + externalID
}

// ExternalID recovers the source-side ID from a canonical record ID,
// accepting both the plain and the agent namespaces. The second return is
// false when the ID does not belong to the given source prefix.
func ExternalID(sourcePrefix, id string) (string, bool) {
	rest, ok := strings.CutPrefix(id, sourcePrefix+"-")
	if !ok || rest == "" {
		return "", false
	}
	rest = strings.TrimPrefix(rest, "agent-")
	return rest, rest != ""
}

// OrgIDFromName derives a stable Organization ID from a free-text company
// name, for sources that have no organization resource. The name is
// normalized (trimmed, lowercased) before hashing, so case and whitespace
// variants of the same name merge; genuine renames fork records.
func OrgIDFromName(sourcePrefix, name string) string {
	return ID(sourcePrefix, "org-"+hashName(name))
}

// NormalizeOrgName returns the normalization applied before hashing,
// exposed so the exporter can detect distinct raw names that collapse to
// the same derived record.
func NormalizeOrgName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func hashName(name string) string {
	sum := sha1.Sum([]byte(NormalizeOrgName(name)))
	return hex.EncodeToString(sum[:8])
}
