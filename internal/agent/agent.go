package agent

import "fmt"

// Agent is a content-generation persona bound to one webhook endpoint.
type Agent struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
}

const FallbackIcon = "🤖"

func FallbackName(id int) string {
	return fmt.Sprintf("Agent %d", id)
}

// DefaultCatalog is the built-in five-agent lineup; each agent posts to <baseURL>/webhook/agent<N>.
func DefaultCatalog(baseURL string) []Agent {
	entries := []struct {
		name, desc, icon string
	}{
		{"General", "Everyday questions and writing help", "🤖"},
		{"Technical", "Code, infrastructure and troubleshooting", "⚡"},
		{"Creative", "Copy, stories and campaign ideas", "🎨"},
		{"Data", "Analysis, metrics and reporting", "📊"},
		{"Mentor", "Career and learning guidance", "🌟"},
	}
	out := make([]Agent, 0, len(entries))
	for i, e := range entries {
		id := i + 1
		out = append(out, Agent{
			ID:          id,
			Name:        e.name,
			Description: e.desc,
			Icon:        e.icon,
			Endpoint:    fmt.Sprintf("%s/webhook/agent%d", baseURL, id),
		})
	}
	return out
}
