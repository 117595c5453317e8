package steps

import (
	"fmt"

	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/state"
)

// Definition is the static description of one application step: the backend
// endpoint it submits to, the fields it needs from the user, and where the
// flow goes afterwards. The catalog is data, not code; adding a step means
// adding an entry here.
type Definition struct {
	ID             state.StepID
	Endpoint       string
	Method         string
	RequiredFields []string

	// NextOnSuccess is the step the flow advances to after a successful
	// submission. NextOnFailure is where a repeatedly failing step routes;
	// empty means stay and retry.
	NextOnSuccess state.StepID
	NextOnFailure state.StepID

	// Prompt is the question the concierge asks while this step is pending.
	Prompt string

	// Terminal marks the last real step: its success ends the application.
	Terminal bool

	// BuildPayload shapes collected fields into the endpoint's wire body.
	// Nil means pick RequiredFields verbatim.
	BuildPayload func(fields map[string]any) map[string]any
}

// Catalog is the ordered set of step definitions for the purchase flow.
type Catalog struct {
	byID  map[state.StepID]Definition
	order []state.StepID
}

// NewCatalog builds the canonical purchase-application chain. Endpoints and
// field names follow the origination API's camelCase wire format.
func NewCatalog() *Catalog {
	defs := []Definition{
		{
			ID:            state.StepStartApplication,
			Endpoint:      "/api/welcome",
			Method:        "POST",
			NextOnSuccess: state.StepHomeDetails,
			Prompt:        "Ready to get started on your home purchase application?",
		},
		{
			ID:             state.StepHomeDetails,
			Endpoint:       "/api/home-info/buying-plans/home-details",
			Method:         "POST",
			RequiredFields: []string{"buyingStage", "homeType", "homeUse"},
			NextOnSuccess:  state.StepHomePrice,
			Prompt:         "Tell me about the home you're looking for: where are you in the process, and what type of home will it be?",
			BuildPayload: func(fields map[string]any) map[string]any {
				payload := map[string]any{
					"buyingStage": fields["buyingStage"],
					"homeType":    fields["homeType"],
					"homeUse":     fields["homeUse"],
				}
				// Agent details are optional and ride along when offered.
				if hasAgent, ok := fields["hasAgent"]; ok {
					payload["realEstateAgent"] = map[string]any{
						"hasAgent":     hasAgent,
						"firstName":    fields["agentFirstName"],
						"lastName":     fields["agentLastName"],
						"emailAddress": fields["agentEmail"],
						"workPhone":    fields["agentPhone"],
					}
				}
				return payload
			},
		},
		{
			ID:             state.StepHomePrice,
			Endpoint:       "/api/home-info/buying-plans/home-price",
			Method:         "POST",
			RequiredFields: []string{"homePrice", "downPayment"},
			NextOnSuccess:  state.StepLivingSituation,
			Prompt:         "What price range are you considering, and how much do you plan to put down?",
		},
		{
			ID:             state.StepLivingSituation,
			Endpoint:       "/api/home-info/own-rent-address",
			Method:         "POST",
			RequiredFields: []string{"livingSituation", "street", "city", "state", "zipCode"},
			NextOnSuccess:  state.StepPersonalInfo,
			Prompt:         "Do you currently rent or own, and what's your current address?",
			BuildPayload: func(fields map[string]any) map[string]any {
				return map[string]any{
					"livingSituation": fields["livingSituation"],
					"address": map[string]any{
						"street":  fields["street"],
						"city":    fields["city"],
						"state":   fields["state"],
						"zipCode": fields["zipCode"],
					},
				}
			},
		},
		{
			ID:             state.StepPersonalInfo,
			Endpoint:       "/api/personal-info",
			Method:         "POST",
			RequiredFields: []string{"firstName", "lastName"},
			NextOnSuccess:  state.StepContactInfo,
			Prompt:         "What's your legal first and last name?",
		},
		{
			ID:             state.StepContactInfo,
			Endpoint:       "/api/personal-info/contact-info",
			Method:         "POST",
			RequiredFields: []string{"email", "phoneNumber"},
			NextOnSuccess:  state.StepMaritalStatus,
			Prompt:         "What's the best email and phone number to reach you?",
		},
		{
			ID:             state.StepMaritalStatus,
			Endpoint:       "/api/personal-info/marital-status",
			Method:         "POST",
			RequiredFields: []string{"maritalStatus"},
			NextOnSuccess:  state.StepMilitaryStatus,
			Prompt:         "What's your marital status?",
		},
		{
			ID:             state.StepMilitaryStatus,
			Endpoint:       "/api/personal-info/military-status",
			Method:         "POST",
			RequiredFields: []string{"militaryStatus"},
			NextOnSuccess:  state.StepIncome,
			Prompt:         "Have you or your spouse served in the U.S. military?",
		},
		{
			ID:             state.StepIncome,
			Endpoint:       "/api/finances/income",
			Method:         "POST",
			RequiredFields: []string{"incomeType", "annualIncome"},
			NextOnSuccess:  state.StepFunds,
			Prompt:         "What's your primary source of income, and roughly how much per year?",
		},
		{
			ID:             state.StepFunds,
			Endpoint:       "/api/finances/funds",
			Method:         "POST",
			RequiredFields: []string{"fundsSource"},
			NextOnSuccess:  state.StepCreditPull,
			Prompt:         "Where will your down payment funds come from?",
		},
		{
			ID:             state.StepCreditPull,
			Endpoint:       "/api/credit-info/birthdate-SSN",
			Method:         "POST",
			RequiredFields: []string{"birthdate", "ssnLastFour"},
			NextOnSuccess:  state.StepCreateAccount,
			Prompt:         "To check your credit I need your date of birth and the last four digits of your SSN.",
		},
		{
			ID:             state.StepCreateAccount,
			Endpoint:       "/api/account-create",
			Method:         "POST",
			RequiredFields: []string{"email"},
			NextOnSuccess:  state.StepTerminal,
			Terminal:       true,
			Prompt:         "Last step: I'll create your Rocket account with the email you gave me. Good to go?",
		},
	}

	c := &Catalog{byID: make(map[state.StepID]Definition, len(defs))}
	for _, d := range defs {
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c
}

func (c *Catalog) Get(id state.StepID) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

func (c *Catalog) First() state.StepID {
	return c.order[0]
}

func (c *Catalog) Order() []state.StepID {
	out := make([]state.StepID, len(c.order))
	copy(out, c.order)
	return out
}

// Validate checks the chain is closed: every NextOnSuccess and NextOnFailure
// resolves to a catalog entry or the terminal sentinel.
func (c *Catalog) Validate() error {
	for _, id := range c.order {
		d := c.byID[id]
		if d.Endpoint == "" || d.Method == "" {
			return fmt.Errorf("step %s: endpoint and method are required", id)
		}
		if err := c.checkTarget(id, d.NextOnSuccess); err != nil {
			return err
		}
		if d.NextOnFailure != "" {
			if err := c.checkTarget(id, d.NextOnFailure); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Catalog) checkTarget(from, to state.StepID) error {
	if to == state.StepTerminal {
		return nil
	}
	if _, ok := c.byID[to]; !ok {
		return fmt.Errorf("step %s: transition target %q is not in the catalog", from, to)
	}
	return nil
}

// MissingFields returns the required fields not yet present in the
// collected set, in catalog order.
func (d Definition) MissingFields(fields map[string]any) []string {
	var missing []string
	for _, name := range d.RequiredFields {
		v, ok := fields[name]
		if !ok || v == nil || v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Payload builds the wire body for this step from collected fields.
func (d Definition) Payload(fields map[string]any) map[string]any {
	if d.BuildPayload != nil {
		return d.BuildPayload(fields)
	}
	body := make(map[string]any, len(d.RequiredFields))
	for _, name := range d.RequiredFields {
		if v, ok := fields[name]; ok {
			body[name] = v
		}
	}
	return body
}
