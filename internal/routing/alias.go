// ABOUTME: AliasTable maps short model names to fully qualified identifiers
// ABOUTME: Built once at load time, read-only at request time
package routing

// builtinAliases are the shipped short names for the default model tiers.
var builtinAliases = map[string]string{
	"flash": "google/gemini-2.5-flash",
	"pro":   "google/gemini-2.5-pro",
}

// AliasTable resolves short operator-facing names to fully qualified
// provider model identifiers. Safe for concurrent reads; never mutated
// after construction.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable creates a table from the built-in aliases with operator
// entries merged on top. Extra may be nil.
func NewAliasTable(extra map[string]string) *AliasTable {
	aliases := make(map[string]string, len(builtinAliases)+len(extra))
	for short, full := range builtinAliases {
		aliases[short] = full
	}
	for short, full := range extra {
		aliases[short] = full
	}
	return &AliasTable{aliases: aliases}
}

// Resolve returns the fully qualified identifier for a short name. A
// lookup miss is not an error: the token is returned unchanged on the
// assumption it is already fully qualified. The availability probe is the
// actual arbiter of validity.
func (t *AliasTable) Resolve(name string) string {
	if full, ok := t.aliases[name]; ok {
		return full
	}
	return name
}

// Len returns the number of entries in the table.
func (t *AliasTable) Len() int {
	return len(t.aliases)
}
