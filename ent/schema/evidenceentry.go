package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EvidenceEntry holds the schema definition for one link of a session's
// evidence hash chain.
type EvidenceEntry struct {
	ent.Schema
}

// Fields of the EvidenceEntry.
func (EvidenceEntry) Fields() []ent.Field {
	return []ent.Field{
		field.Int("seq").
			Comment("Position in the chain, starting at 0"),
		field.String("phase"),
		field.String("kind"),
		field.JSON("data", map[string]interface{}{}).
			Comment("Canonicalized entry payload"),
		field.String("content_hash").
			Comment("SHA-256 over the canonical entry"),
		field.String("prev_hash").
			Comment("Hash of the previous entry, zeros for the first"),
		field.String("signature").
			Optional().
			Comment("Hex ed25519 signature when signing is enabled"),
		field.Time("created_at").
			Default(time.Now),
	}
}

// Edges of the EvidenceEntry.
func (EvidenceEntry) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", BrainSession.Type).
			Ref("evidence_entries").
			Unique().
			Required(),
	}
}

// Indexes of the EvidenceEntry.
func (EvidenceEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("kind"),
		index.Fields("phase"),
	}
}
