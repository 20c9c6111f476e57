package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Artifact holds the schema definition for a content-addressed artifact
// handle. The payload itself lives in the artifact store; the database
// keeps the handle for listing and retention.
type Artifact struct {
	ent.Schema
}

// Fields of the Artifact.
func (Artifact) Fields() []ent.Field {
	return []ent.Field{
		field.String("artifact_id").
			Unique().
			Comment("SHA-256 of the payload, hex"),
		field.Text("summary"),
		field.Int64("size_bytes"),
		field.String("mime_type").
			Default("text/plain"),
		field.String("source").
			Optional().
			Comment("What produced the artifact, e.g. tool:ygn-core.search"),
		field.Time("created_at").
			Default(time.Now),
	}
}

// Edges of the Artifact.
func (Artifact) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", BrainSession.Type).
			Ref("artifacts").
			Unique(),
	}
}

// Indexes of the Artifact.
func (Artifact) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("source"),
		index.Fields("created_at"),
	}
}
