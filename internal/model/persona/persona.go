package persona

// Default is the persona preselected on a fresh screen.
const Default = "formal"

// Persona is a response tone the backend knows how to apply.
type Persona struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Seed returns the closed set of personas the backend accepts.
func Seed() []Persona {
	return []Persona{
		{
			ID:          "formal",
			Label:       "Formal",
			Description: "Quotes the document in a neutral, matter-of-fact register.",
		},
		{
			ID:          "friendly",
			Label:       "Friendly",
			Description: "Relays the relevant passage in a warm, conversational tone.",
		},
		{
			ID:          "skeptical",
			Label:       "Skeptical",
			Description: "Reports what the document claims and suggests verifying it.",
		},
	}
}
