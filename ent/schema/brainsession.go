package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BrainSession holds the schema definition for the BrainSession entity.
type BrainSession struct {
	ent.Schema
}

// Fields of the BrainSession.
func (BrainSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("session_id").
			Unique().
			Immutable(),
		field.Text("task").
			Comment("Original user task (full-text searchable)"),
		field.String("mode").
			Default("pipeline").
			Comment("pipeline, compiled, or refined"),
		field.String("model_id").
			Default("default"),
		field.Enum("status").
			Values("pending", "in_progress", "cancelling", "completed", "blocked", "failed", "cancelled").
			Default("pending"),
		field.Bool("blocked").
			Default(false).
			Comment("Guard rejected the input before the pipeline ran"),
		field.Text("result").
			Optional().
			Nillable().
			Comment("Final output (full-text searchable)"),
		field.String("error_message").
			Optional().
			Nillable(),
		field.String("merkle_root").
			Optional().
			Comment("RFC 6962 root over the evidence chain at completion"),
		field.String("signer_public_key").
			Optional().
			Comment("Hex ed25519 key when the pack is signed"),
		field.Time("created_at").
			Default(time.Now),
		field.Time("started_at").
			Optional().
			Nillable().
			Comment("When a worker picked the session up"),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Soft delete for retention policy"),
	}
}

// Edges of the BrainSession.
func (BrainSession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("evidence_entries", EvidenceEntry.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("guard_checks", GuardCheck.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("memory_entries", MemoryEntry.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("artifacts", Artifact.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the BrainSession.
func (BrainSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("mode"),
		index.Fields("status", "created_at"),

		// Partial index for soft deletes
		index.Fields("deleted_at").
			Annotations(entsql.IndexWhere("deleted_at IS NOT NULL")),
	}
}

// Annotations for PostgreSQL-specific features.
// Note: GIN indexes for full-text search are created via migration SQL
// in pkg/database/migrations.
func (BrainSession) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
