package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Company holds the schema definition for the Company entity.
type Company struct {
	ent.Schema
}

// Fields of the Company.
func (Company) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").
			NotEmpty().
			MaxLen(200).
			Comment("Company name"),

		field.String("industry").
			Optional().
			Comment("Industry label (e.g., 'Software', 'Healthcare')"),

		field.String("company_size").
			Optional().
			Comment("Size bracket (e.g., '51-200', '1001-5000', '5001+')"),

		field.Float("annual_revenue").
			Optional().
			Nillable().
			Comment("Annual revenue in USD"),

		field.String("country").
			Optional().
			MaxLen(2).
			Comment("ISO country code"),

		field.String("state").
			Optional().
			Comment("State or province code"),

		field.String("region").
			Optional().
			Comment("Sales region label (e.g., 'West', 'EMEA')"),

		field.String("city").
			Optional().
			Comment("City name"),

		field.String("website").
			Optional().
			Comment("Company website URL"),

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

// Edges of the Company.
func (Company) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("contacts", Contact.Type),
		edge.To("deals", Deal.Type),
	}
}

// Indexes of the Company.
func (Company) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("industry"),
		index.Fields("country", "state"),
	}
}
