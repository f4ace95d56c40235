// Package testdata generates realistic CRM entities for seeding and load tests.
package testdata

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/deal"
)

// GeneratorConfig configures entity generation parameters
type GeneratorConfig struct {
	Companies     int
	ContactsPerCo int     // average contacts per company
	DealsPerCo    int     // average deals per company
	RevenueChance float64 // 0.0-1.0 probability of a company carrying annual revenue
	AmountChance  float64 // probability of a deal being quoted
	MinDealAmount float64
	MaxDealAmount float64
}

// RegionData maps sales regions to their states
var RegionData = map[string][]string{
	"West":    {"CA", "OR", "WA", "NV", "AZ"},
	"Central": {"TX", "CO", "IL", "MN", "MO"},
	"East":    {"NY", "NJ", "MA", "FL", "GA"},
	"EMEA":    {"", "", ""},
	"APAC":    {"", "", ""},
}

var industries = []string{
	"Software", "Healthcare", "Manufacturing", "Retail",
	"Financial Services", "Education", "Logistics", "Media",
}

var companySizes = []string{
	"1-10", "11-50", "51-200", "201-500", "501-1000", "1001-5000", "5001+",
}

var dealStages = []deal.Stage{
	deal.StageProspecting,
	deal.StageQualification,
	deal.StageProposal,
	deal.StageNegotiation,
	deal.StageClosedWon,
	deal.StageClosedLost,
}

// pickRegion returns a random region and one of its states. Non-US regions
// have no state codes.
func pickRegion() (string, string) {
	regions := []string{"West", "Central", "East", "EMEA", "APAC"}
	region := regions[rand.Intn(len(regions))]
	states := RegionData[region]
	return region, states[rand.Intn(len(states))]
}

func countryFor(region string) string {
	switch region {
	case "EMEA":
		countries := []string{"DE", "FR", "GB", "ES"}
		return countries[rand.Intn(len(countries))]
	case "APAC":
		countries := []string{"JP", "AU", "SG", "IN"}
		return countries[rand.Intn(len(countries))]
	}
	return "US"
}

// GenerateCompany creates a single company with realistic data
func GenerateCompany(client *ent.Client, config GeneratorConfig) *ent.CompanyCreate {
	region, state := pickRegion()

	builder := client.Company.Create().
		SetName(gofakeit.Company()).
		SetIndustry(industries[rand.Intn(len(industries))]).
		SetCompanySize(companySizes[rand.Intn(len(companySizes))]).
		SetCountry(countryFor(region)).
		SetRegion(region).
		SetCity(gofakeit.City()).
		SetWebsite(gofakeit.URL())

	if state != "" {
		builder.SetState(state)
	}

	if rand.Float64() < config.RevenueChance {
		builder.SetAnnualRevenue(float64(rand.Intn(50_000_000)) + 100_000)
	}

	return builder
}

// GenerateContact creates a contact attached to a company, inheriting its
// geographic fields.
func GenerateContact(client *ent.Client, c *ent.Company) *ent.ContactCreate {
	builder := client.Contact.Create().
		SetFirstName(gofakeit.FirstName()).
		SetLastName(gofakeit.LastName()).
		SetEmail(gofakeit.Email()).
		SetTitle(gofakeit.JobTitle()).
		SetIndustry(c.Industry).
		SetCountry(c.Country).
		SetRegion(c.Region).
		SetCompanyID(c.ID)

	if c.State != "" {
		builder.SetState(c.State)
	}

	return builder
}

// GenerateDeal creates a deal attached to a company.
func GenerateDeal(client *ent.Client, c *ent.Company, config GeneratorConfig) *ent.DealCreate {
	builder := client.Deal.Create().
		SetTitle(fmt.Sprintf("%s - %s", c.Name, gofakeit.ProductName())).
		SetStage(dealStages[rand.Intn(len(dealStages))]).
		SetIndustry(c.Industry).
		SetCountry(c.Country).
		SetRegion(c.Region).
		SetCompanyID(c.ID)

	if c.State != "" {
		builder.SetState(c.State)
	}

	if rand.Float64() < config.AmountChance {
		span := config.MaxDealAmount - config.MinDealAmount
		builder.SetAmount(config.MinDealAmount + rand.Float64()*span)
	}

	return builder
}

// Seed populates the database with companies plus their contacts and deals.
// Returns how many of each were created.
func Seed(ctx context.Context, client *ent.Client, config GeneratorConfig) (companies, contacts, deals int, err error) {
	if config.MaxDealAmount <= config.MinDealAmount {
		config.MinDealAmount = 5_000
		config.MaxDealAmount = 500_000
	}

	for i := 0; i < config.Companies; i++ {
		c, err := GenerateCompany(client, config).Save(ctx)
		if err != nil {
			return companies, contacts, deals, fmt.Errorf("failed to create company: %w", err)
		}
		companies++

		for j := 0; j < config.ContactsPerCo; j++ {
			if _, err := GenerateContact(client, c).Save(ctx); err != nil {
				return companies, contacts, deals, fmt.Errorf("failed to create contact: %w", err)
			}
			contacts++
		}

		for j := 0; j < config.DealsPerCo; j++ {
			if _, err := GenerateDeal(client, c, config).Save(ctx); err != nil {
				return companies, contacts, deals, fmt.Errorf("failed to create deal: %w", err)
			}
			deals++
		}
	}

	return companies, contacts, deals, nil
}
