package domain

// Contact is one row from an uploaded CSV. Country, Region, and Name are
// required at parse time; everything else is optional. Contacts are immutable
// after ingestion and owned by their parent batch.
type Contact struct {
	Country     string `json:"country"`
	Region      string `json:"region"` // states/city column
	Name        string `json:"name"`
	Designation string `json:"designation,omitempty"`
	Email       string `json:"email,omitempty"`
	University  string `json:"university,omitempty"`

	// Optional product context carried through to prompt composition.
	// Empty fields fall back to the configured product defaults.
	ProductName     string `json:"product_name,omitempty"`
	CTAGoal         string `json:"cta_goal,omitempty"`
	ProductOneliner string `json:"product_oneliner,omitempty"`
	ProductUsers    string `json:"product_core_users,omitempty"`
	ProductFeatures string `json:"product_features,omitempty"`
	ProductOutcomes string `json:"product_outcomes,omitempty"`
	ProductCaselets string `json:"product_caselets,omitempty"`

	// Optional recipient context.
	PublicNotes     string `json:"recipient_public_notes,omitempty"`
	BusinessMap     string `json:"recipient_business_map,omitempty"`
	ICPGeos         string `json:"recipient_icp_geos,omitempty"`
	Offers          string `json:"recipient_offers,omitempty"`
	RelevantTrigger string `json:"relevant_trigger,omitempty"`
	Pain            string `json:"recipient_pain,omitempty"`
	LeadSource      string `json:"lead_source,omitempty"`
	Persona         string `json:"prospect_persona,omitempty"`
}
