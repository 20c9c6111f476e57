package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MemoryEntry holds the schema definition for one stored memory.
type MemoryEntry struct {
	ent.Schema
}

// Fields of the MemoryEntry.
func (MemoryEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("key").
			Comment("Caller-chosen lookup key, unique per session"),
		field.Text("content").
			Comment("Stored memory body (full-text searchable)"),
		field.String("category").
			Default("general"),
		field.Time("created_at").
			Default(time.Now),
	}
}

// Edges of the MemoryEntry.
func (MemoryEntry) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", BrainSession.Type).
			Ref("memory_entries").
			Unique(),
	}
}

// Indexes of the MemoryEntry.
func (MemoryEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("key"),
		index.Fields("category"),
	}
}
