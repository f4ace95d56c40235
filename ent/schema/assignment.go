package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Assignment holds the schema definition for the Assignment entity. It is the
// single record linking an entity to the territory that currently owns it.
type Assignment struct {
	ent.Schema
}

// Fields of the Assignment.
func (Assignment) Fields() []ent.Field {
	return []ent.Field{
		field.Int("territory_id").
			Positive().
			Comment("Territory that owns the entity"),

		field.Enum("entity_type").
			Values("contact", "company", "deal").
			Comment("Kind of entity this assignment points at"),

		field.Int("entity_id").
			Positive().
			Comment("ID of the assigned entity in its own store"),

		field.Bool("auto_assigned").
			Default(false).
			Comment("True when produced by the rule engine, false for manual assignments"),

		field.Time("assigned_at").
			Default(time.Now).
			Comment("When the entity was (re)assigned; reassignment updates this in place"),
	}
}

// Edges of the Assignment.
func (Assignment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("territory", Territory.Type).
			Ref("assignments").
			Field("territory_id").
			Required().
			Unique(),
	}
}

// Indexes of the Assignment.
func (Assignment) Indexes() []ent.Index {
	return []ent.Index{
		// At most one territory per entity.
		index.Fields("entity_type", "entity_id").Unique(),

		// Counter recomputation scans by territory.
		index.Fields("territory_id"),
		index.Fields("territory_id", "entity_type"),
	}
}
