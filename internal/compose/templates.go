package compose

import "github.com/ignite/outreach/internal/domain"

// outputContract is appended to every prompt so the generator's parser can
// rely on the section headings.
const outputContract = `EXACT OUTPUT FORMAT REQUIRED:
**SUBJECT LINE:**
Option 1: [subject line - max 8 words]
Option 2: [subject line - max 8 words]
Option 3: [subject line - max 8 words]

**EMAIL BODY:**
[Complete email content ending with the sender's full signature]`

const defaultPromptTemplate = `Write a professional cold email for {{ product_name }} to {{ recipient_name }}, {{ designation }} at {{ university }}.

PRODUCT CONTEXT:
- What it is: {{ product_oneliner }}
- Core users: {{ product_core_users }}
- Key features:
{{ product_features }}
- Outcomes:
{{ product_outcomes }}
- Case studies:
{{ product_caselets }}

RECIPIENT CONTEXT:
- Institution focus: {{ business_map }}
- Student geographies: {{ icp_geos }}
- Offers: {{ offers }}
- Relevant trigger: {{ relevant_trigger }}
- Likely pain: {{ recipient_pain }}
- Persona: {{ persona }}

GOAL: {{ cta_goal }}

Sign off with exactly:
{{ sender_name }}
{{ sender_designation }}
{{ sender_phone }}
{{ sender_company }}

` + outputContract

const customPromptTemplate = `{{ custom_prompt }}

RECIPIENT DETAILS (use these literal values, do not invent placeholders):
- Name: {{ recipient_name }}
- Institution: {{ university }}
- Designation: {{ designation }}

SENDER DETAILS (sign off with these literal values):
- Name: {{ sender_name }}
- Designation: {{ sender_designation }}
- Phone: {{ sender_phone }}
- Company: {{ sender_company }}

` + outputContract

// Product defaults applied when the CSV carries no product context columns.
const (
	defaultProductName     = "VisaMonk.ai"
	defaultCTAGoal         = "demo call"
	defaultProductOneliner = "AI copilot that improves visa-interview readiness and counselor throughput."
	defaultProductUsers    = "Study-abroad counselors & agency teams"
	defaultProductFeatures = "- Adaptive mock interviews with scoring across Preparedness, Financials, Intent & Credibility\n- Country-specific rubrics & feedback\n- Team dashboard: bottleneck analytics, counselor QA\n- White-label & partner IDs"
	defaultProductOutcomes = "- 30-45 min saved per student assessment\n- 20-30% improvement in 'ready for interview' status rates (pilot cohorts)\n- Cut no-show rates by 12-18% with automated prep nudges"
	defaultProductCaselets = "- South India agency (40 counselors): standardized QA, throughput +22%\n- Bangladesh partner: faster triage, 17% drop in weak-fit submissions"
	defaultBusinessMap     = "education; research; international student services"
	defaultICPGeos         = "international students from Asia, Africa"
	defaultOffers          = "scholarships, visa support"
	defaultTrigger         = "New US visa policy changes, 2025"
	defaultPain            = "Manual visa interview prep"
	defaultLeadSource      = "Cold outbound via LinkedIn"
)

// withProductDefaults fills empty context fields so the rendered prompt never
// contains blank sections.
func withProductDefaults(c domain.Contact) domain.Contact {
	setIfEmpty := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}

	setIfEmpty(&c.ProductName, defaultProductName)
	setIfEmpty(&c.CTAGoal, defaultCTAGoal)
	setIfEmpty(&c.ProductOneliner, defaultProductOneliner)
	setIfEmpty(&c.ProductUsers, defaultProductUsers)
	setIfEmpty(&c.ProductFeatures, defaultProductFeatures)
	setIfEmpty(&c.ProductOutcomes, defaultProductOutcomes)
	setIfEmpty(&c.ProductCaselets, defaultProductCaselets)
	setIfEmpty(&c.BusinessMap, defaultBusinessMap)
	setIfEmpty(&c.ICPGeos, defaultICPGeos)
	setIfEmpty(&c.Offers, defaultOffers)
	setIfEmpty(&c.RelevantTrigger, defaultTrigger)
	setIfEmpty(&c.Pain, defaultPain)
	setIfEmpty(&c.LeadSource, defaultLeadSource)
	if c.Persona == "" {
		if c.Designation != "" {
			c.Persona = c.Designation
		} else {
			c.Persona = "Counselor"
		}
	}
	return c
}
