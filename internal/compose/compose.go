// Package compose builds LLM prompts for personalized cold emails.
//
// Prompts are rendered through Liquid templates so every recipient and sender
// detail is interpolated as a literal string; the rendered prompt needs no
// further substitution downstream.
package compose

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/outreach/internal/domain"
)

// Composer renders generation prompts from contact and sender context.
// Safe for concurrent use; parsed templates are cached.
type Composer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewComposer creates a prompt composer.
func NewComposer() *Composer {
	return &Composer{engine: liquid.NewEngine()}
}

// Compose returns the complete prompt for one contact. When customPrompt is
// non-empty it is augmented with the recipient/sender details and the output
// contract; otherwise the built-in default prompt is used.
func (c *Composer) Compose(contact domain.Contact, sender domain.SenderIdentity, customPrompt string) (string, error) {
	ctx := bindings(withProductDefaults(contact), sender)

	if strings.TrimSpace(customPrompt) != "" {
		ctx["custom_prompt"] = strings.TrimSpace(customPrompt)
		return c.render(customPromptTemplate, ctx)
	}
	return c.render(defaultPromptTemplate, ctx)
}

func (c *Composer) render(source string, ctx map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := c.cache.Load(source); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := c.engine.ParseString(source)
		if err != nil {
			return "", fmt.Errorf("parse prompt template: %w", err)
		}
		c.cache.Store(source, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func bindings(contact domain.Contact, sender domain.SenderIdentity) map[string]interface{} {
	return map[string]interface{}{
		"recipient_name":     contact.Name,
		"university":         contact.University,
		"designation":        contact.Designation,
		"persona":            contact.Persona,
		"product_name":       contact.ProductName,
		"cta_goal":           contact.CTAGoal,
		"product_oneliner":   contact.ProductOneliner,
		"product_core_users": contact.ProductUsers,
		"product_features":   contact.ProductFeatures,
		"product_outcomes":   contact.ProductOutcomes,
		"product_caselets":   contact.ProductCaselets,
		"business_map":       contact.BusinessMap,
		"icp_geos":           contact.ICPGeos,
		"offers":             contact.Offers,
		"relevant_trigger":   contact.RelevantTrigger,
		"recipient_pain":     contact.Pain,
		"lead_source":        contact.LeadSource,
		"sender_name":        sender.Name,
		"sender_designation": sender.Designation,
		"sender_phone":       sender.Phone,
		"sender_company":     sender.Company,
	}
}
