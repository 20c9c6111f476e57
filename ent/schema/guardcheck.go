package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// GuardCheck holds the schema definition for one guard decision.
type GuardCheck struct {
	ent.Schema
}

// Fields of the GuardCheck.
func (GuardCheck) Fields() []ent.Field {
	return []ent.Field{
		field.Text("input_excerpt").
			Comment("Redacted excerpt of the checked text"),
		field.Bool("allowed"),
		field.String("threat_level").
			Comment("none, low, medium, high, or critical"),
		field.Float("score"),
		field.String("reason"),
		field.String("backend").
			Comment("Which guard produced the decision"),
		field.Float("latency_ms").
			Default(0),
		field.Time("created_at").
			Default(time.Now),
	}
}

// Edges of the GuardCheck.
func (GuardCheck) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", BrainSession.Type).
			Ref("guard_checks").
			Unique(),
	}
}

// Indexes of the GuardCheck.
func (GuardCheck) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("allowed"),
		index.Fields("threat_level"),
		index.Fields("created_at"),
	}
}
