package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Contact holds the schema definition for the Contact entity.
type Contact struct {
	ent.Schema
}

// Fields of the Contact.
func (Contact) Fields() []ent.Field {
	return []ent.Field{
		field.String("first_name").
			NotEmpty().
			Comment("Contact first name"),

		field.String("last_name").
			Optional().
			Comment("Contact last name"),

		field.String("email").
			Optional().
			Comment("Contact email address"),

		field.String("title").
			Optional().
			Comment("Job title"),

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
			Comment("Company this contact belongs to (null for unattached contacts)"),

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

// Edges of the Contact.
func (Contact) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("company", Company.Type).
			Ref("contacts").
			Field("company_id").
			Unique(),
	}
}

// Indexes of the Contact.
func (Contact) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email"),
		index.Fields("country", "state"),
	}
}
