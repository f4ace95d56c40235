// Package entities exposes the narrow accessor the assignment engine consumes:
// existence checks, rule-field values and chunked iteration over companies,
// contacts and deals. The engine never touches entity columns directly.
package entities

import (
	"context"
	"fmt"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/ent/company"
	"github.com/jordanlanch/territorydb/ent/contact"
	"github.com/jordanlanch/territorydb/ent/deal"
	"github.com/jordanlanch/territorydb/pkg/rules"
)

// Service resolves entity records and their rule-field values.
type Service struct {
	client *ent.Client
}

// NewService creates a new entities service.
func NewService(client *ent.Client) *Service {
	return &Service{client: client}
}

// Exists reports whether an entity of the given type exists.
func (s *Service) Exists(ctx context.Context, entityType assignment.EntityType, entityID int) (bool, error) {
	switch entityType {
	case assignment.EntityTypeCompany:
		return s.client.Company.Query().Where(company.ID(entityID)).Exist(ctx)
	case assignment.EntityTypeContact:
		return s.client.Contact.Query().Where(contact.ID(entityID)).Exist(ctx)
	case assignment.EntityTypeDeal:
		return s.client.Deal.Query().Where(deal.ID(entityID)).Exist(ctx)
	}
	return false, fmt.Errorf("unknown entity type %q", entityType)
}

// FieldValue loads an entity and returns its field accessor. Fields the
// entity doesn't carry resolve to nil, which the evaluator treats as
// never-matching (except notEquals).
func (s *Service) FieldValue(ctx context.Context, entityType assignment.EntityType, entityID int) (rules.FieldValue, error) {
	switch entityType {
	case assignment.EntityTypeCompany:
		c, err := s.client.Company.Get(ctx, entityID)
		if err != nil {
			if ent.IsNotFound(err) {
				return nil, fmt.Errorf("company not found")
			}
			return nil, fmt.Errorf("failed to fetch company: %w", err)
		}
		return CompanyFields(c), nil

	case assignment.EntityTypeContact:
		c, err := s.client.Contact.Get(ctx, entityID)
		if err != nil {
			if ent.IsNotFound(err) {
				return nil, fmt.Errorf("contact not found")
			}
			return nil, fmt.Errorf("failed to fetch contact: %w", err)
		}
		return ContactFields(c), nil

	case assignment.EntityTypeDeal:
		d, err := s.client.Deal.Get(ctx, entityID)
		if err != nil {
			if ent.IsNotFound(err) {
				return nil, fmt.Errorf("deal not found")
			}
			return nil, fmt.Errorf("failed to fetch deal: %w", err)
		}
		return DealFields(d), nil
	}

	return nil, fmt.Errorf("unknown entity type %q", entityType)
}

// DealAmount returns the current amount of a deal. A deleted deal or a deal
// without an amount reports (0, false, nil) so aggregate recomputation can
// treat stale references as zero instead of failing.
func (s *Service) DealAmount(ctx context.Context, dealID int) (float64, bool, error) {
	d, err := s.client.Deal.Get(ctx, dealID)
	if err != nil {
		if ent.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to fetch deal: %w", err)
	}
	if d.Amount == nil {
		return 0, false, nil
	}
	return *d.Amount, true, nil
}

// IterateByType walks every entity of the given type in id order, loading
// chunkSize rows at a time so batch auto-assignment never materializes the
// whole table. fn receives the entity id and its field accessor.
func (s *Service) IterateByType(ctx context.Context, entityType assignment.EntityType, chunkSize int, fn func(entityID int, get rules.FieldValue) error) error {
	if chunkSize <= 0 {
		chunkSize = 200
	}

	lastID := 0
	for {
		var n int

		switch entityType {
		case assignment.EntityTypeCompany:
			batch, err := s.client.Company.Query().
				Where(company.IDGT(lastID)).
				Order(ent.Asc(company.FieldID)).
				Limit(chunkSize).
				All(ctx)
			if err != nil {
				return fmt.Errorf("failed to list companies: %w", err)
			}
			for _, c := range batch {
				if err := fn(c.ID, CompanyFields(c)); err != nil {
					return err
				}
				lastID = c.ID
			}
			n = len(batch)

		case assignment.EntityTypeContact:
			batch, err := s.client.Contact.Query().
				Where(contact.IDGT(lastID)).
				Order(ent.Asc(contact.FieldID)).
				Limit(chunkSize).
				All(ctx)
			if err != nil {
				return fmt.Errorf("failed to list contacts: %w", err)
			}
			for _, c := range batch {
				if err := fn(c.ID, ContactFields(c)); err != nil {
					return err
				}
				lastID = c.ID
			}
			n = len(batch)

		case assignment.EntityTypeDeal:
			batch, err := s.client.Deal.Query().
				Where(deal.IDGT(lastID)).
				Order(ent.Asc(deal.FieldID)).
				Limit(chunkSize).
				All(ctx)
			if err != nil {
				return fmt.Errorf("failed to list deals: %w", err)
			}
			for _, d := range batch {
				if err := fn(d.ID, DealFields(d)); err != nil {
					return err
				}
				lastID = d.ID
			}
			n = len(batch)

		default:
			return fmt.Errorf("unknown entity type %q", entityType)
		}

		if n < chunkSize {
			return nil
		}
	}
}

// CompanyFields returns the rule-field accessor for a company. Companies
// carry all six rule fields.
func CompanyFields(c *ent.Company) rules.FieldValue {
	return func(f rules.Field) any {
		switch f {
		case rules.FieldRegion:
			return nonEmpty(c.Region)
		case rules.FieldState:
			return nonEmpty(c.State)
		case rules.FieldCountry:
			return nonEmpty(c.Country)
		case rules.FieldIndustry:
			return nonEmpty(c.Industry)
		case rules.FieldCompanySize:
			return nonEmpty(c.CompanySize)
		case rules.FieldAnnualRevenue:
			if c.AnnualRevenue == nil {
				return nil
			}
			return *c.AnnualRevenue
		}
		return nil
	}
}

// ContactFields returns the rule-field accessor for a contact. Size and
// revenue are company attributes and resolve to nil here.
func ContactFields(c *ent.Contact) rules.FieldValue {
	return func(f rules.Field) any {
		switch f {
		case rules.FieldRegion:
			return nonEmpty(c.Region)
		case rules.FieldState:
			return nonEmpty(c.State)
		case rules.FieldCountry:
			return nonEmpty(c.Country)
		case rules.FieldIndustry:
			return nonEmpty(c.Industry)
		}
		return nil
	}
}

// DealFields returns the rule-field accessor for a deal.
func DealFields(d *ent.Deal) rules.FieldValue {
	return func(f rules.Field) any {
		switch f {
		case rules.FieldRegion:
			return nonEmpty(d.Region)
		case rules.FieldState:
			return nonEmpty(d.State)
		case rules.FieldCountry:
			return nonEmpty(d.Country)
		case rules.FieldIndustry:
			return nonEmpty(d.Industry)
		}
		return nil
	}
}

// nonEmpty maps ent's zero-value optional strings to nil so absent fields
// never satisfy a predicate.
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
