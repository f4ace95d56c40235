package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Deal holds the schema definition for the Deal entity.
type Deal struct {
	ent.Schema
}

// Fields of the Deal.
func (Deal) Fields() []ent.Field {
	return []ent.Field{
		field.String("title").
			NotEmpty().
			MaxLen(200).
			Comment("Deal title"),

		field.Float("amount").
			Optional().
			Nillable().
			Comment("Deal amount in USD (null when not yet quoted; counts as zero in aggregates)"),

		field.Enum("stage").
			Values("prospecting", "qualification", "proposal", "negotiation", "closed_won", "closed_lost").
			Default("prospecting").
			Comment("Pipeline stage"),

		field.String("industry").
			Optional().
			Comment("Industry label, usually inherited from the company"),

		field.String("country").
			Optional().
			MaxLen(2).
			Comment("ISO country code"),

		field.String("state").
			Optional().
			Comment("State or province code"),

		field.String("region").
			Optional().
			Comment("Sales region label"),

		field.Int("company_id").
			Optional().
			Nillable().
			Comment("Company this deal belongs to"),

		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("Creation timestamp"),

		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("Last update timestamp"),
	}
}

// Edges of the Deal.
func (Deal) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("company", Company.Type).
			Ref("deals").
			Field("company_id").
			Unique(),
	}
}

// Indexes of the Deal.
func (Deal) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("stage"),
		index.Fields("country", "state"),
	}
}
