package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/jordanlanch/territorydb/pkg/rules"
)

// Territory holds the schema definition for the Territory entity.
type Territory struct {
	ent.Schema
}

// Fields of the Territory.
func (Territory) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").
			NotEmpty().
			MaxLen(200).
			Comment("Territory name (e.g., 'West Coast', 'Enterprise Accounts')"),

		field.Text("description").
			Optional().
			Comment("Description of the territory coverage"),

		field.String("color").
			Default("#3B82F6").
			MaxLen(7).
			Comment("Display color as a hex code"),

		field.Int("owner_user_id").
			Optional().
			Nillable().
			Comment("User who owns this territory (null if unowned)"),

		field.JSON("rules", []rules.Rule{}).
			Optional().
			Comment("Conjunctive rule set; an entity belongs here only if every rule matches"),

		field.Int("priority").
			Default(0).
			Comment("Match order: lower priority wins when several territories match"),

		field.Bool("active").
			Default(true).
			Comment("Inactive territories are skipped by auto-assignment"),

		field.Int("assigned_contacts").
			Default(0).
			NonNegative().
			Comment("Cached count of assigned contacts; derived from assignments, never authoritative"),

		field.Int("assigned_companies").
			Default(0).
			NonNegative().
			Comment("Cached count of assigned companies"),

		field.Int("assigned_deals").
			Default(0).
			NonNegative().
			Comment("Cached count of assigned deals"),

		field.Float("total_deal_value").
			Default(0).
			Comment("Cached sum of assigned deal amounts"),

		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("When the territory was created"),

		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("When the territory was last updated"),
	}
}

// Edges of the Territory.
func (Territory) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("assignments", Assignment.Type),
	}
}

// Indexes of the Territory.
func (Territory) Indexes() []ent.Index {
	return []ent.Index{
		// Active-territory listing in match order.
		index.Fields("active", "priority"),
		index.Fields("name"),
	}
}
