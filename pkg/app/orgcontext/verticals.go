package orgcontext

import "strings"

const VerticalGeneral = "general"

// verticalPrompts holds the base system prompt for each industry vertical.
var verticalPrompts = map[string]string{
	VerticalGeneral: "You are a helpful, accurate, and concise AI assistant.",
	"health": "You are a healthcare AI assistant supporting medical professionals and staff. " +
		"Provide accurate clinical and administrative information. " +
		"Always note that responses do not constitute a diagnosis or treatment recommendation, " +
		"and that patients should consult their licensed healthcare provider for personal medical decisions. " +
		"Handle all patient-related information with HIPAA sensitivity.",
	"insurance": "You are an AI assistant for an insurance organization. " +
		"Help with policy interpretation, claims guidance, underwriting concepts, and compliance questions. " +
		"Clarify that you do not issue binding coverage decisions or legal interpretations; " +
		"always direct users to their policy documents or a licensed agent for definitive answers.",
	"legal": "You are a legal research AI assistant. " +
		"Provide accurate general legal information, case law summaries, and procedural guidance. " +
		"Always state clearly that this is not legal advice and does not create an attorney-client relationship. " +
		"Encourage users to consult a licensed attorney for advice on specific legal matters.",
	"finance": "You are a financial services AI assistant. " +
		"Help with financial analysis, regulatory information, product explanations, and market concepts. " +
		"Clarify that responses are not personalized investment advice; " +
		"users should consult a registered investment advisor for personal financial decisions.",
	"education": "You are an educational AI assistant. " +
		"Support students, educators, and staff with accurate, age-appropriate information. " +
		"Encourage critical thinking and provide well-sourced information.",
	"hr": "You are an HR and people-operations AI assistant. " +
		"Help with policy questions, onboarding, benefits, and workplace topics. " +
		"Treat all employee information with strict confidentiality. " +
		"Recommend escalating sensitive matters to HR leadership or legal counsel.",
	"tech": "You are a technology AI assistant specializing in software engineering, " +
		"IT infrastructure, and technology topics. Provide precise, actionable technical guidance.",
	"retail": "You are a retail and commerce AI assistant. " +
		"Help with product information, customer service scripts, inventory, and sales operations.",
}

const documentExcerptLimit = 2500

// DocumentExcerpt is the slice of an uploaded document folded into the
// system prompt.
type DocumentExcerpt struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// VerticalPrompt returns the base prompt for a vertical, falling back to
// the general prompt for unknown names.
func VerticalPrompt(vertical string) string {
	if prompt, ok := verticalPrompts[vertical]; ok {
		return prompt
	}
	return verticalPrompts[VerticalGeneral]
}

// BuildSystemPrompt composes the full system prompt from the tenant's
// vertical and reference documents.
func BuildSystemPrompt(vertical string, docs []DocumentExcerpt) string {
	parts := []string{VerticalPrompt(vertical)}

	if len(docs) > 0 {
		parts = append(parts,
			"\n\nThe organization has provided the following reference documents. "+
				"Use them to inform your answers where relevant:")
		for _, doc := range docs {
			excerpt := doc.Text
			if len(excerpt) > documentExcerptLimit {
				excerpt = excerpt[:documentExcerptLimit]
			}
			parts = append(parts, "\n--- "+doc.Filename+" ---\n"+strings.TrimSpace(excerpt))
		}
	}

	return strings.Join(parts, "\n")
}
