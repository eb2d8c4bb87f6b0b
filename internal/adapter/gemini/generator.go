// Package gemini generates advisory scripts with the Gemini generateContent
// API, degrading to a deterministic template whenever the backend is
// unconfigured or unreachable.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// Generator implements domain.AdvisoryGenerator.
type Generator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewGenerator creates a Gemini-backed generator. An empty apiKey disables
// the backend entirely; every call then takes the template path.
func NewGenerator(apiKey, model string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Generate produces a non-empty advisory script naming the user, their LGA
// and the detected factors. Backend failures are absorbed here and converted
// to the templated fallback, never propagated.
func (g *Generator) Generate(ctx context.Context, userName, lga string, factors []domain.RiskFactor) string {
	if g.apiKey == "" {
		g.metrics.AdvisorySource.WithLabelValues("template").Inc()
		return FallbackScript(userName, lga, factors)
	}

	script, err := g.generateContent(ctx, buildPrompt(userName, lga, factors))
	if err != nil {
		g.logger.Warn("gemini generation failed, using template",
			"lga", lga,
			"error", err,
		)
		g.metrics.AdvisorySource.WithLabelValues("template").Inc()
		return FallbackScript(userName, lga, factors)
	}

	script = sanitize(script)
	if script == "" {
		g.metrics.AdvisorySource.WithLabelValues("template").Inc()
		return FallbackScript(userName, lga, factors)
	}

	g.metrics.AdvisorySource.WithLabelValues("gemini").Inc()
	return script
}

func (g *Generator) generateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, b)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return payload.Candidates[0].Content.Parts[0].Text, nil
}

// FallbackScript is the deterministic degraded-mode advisory. It still names
// the user, the LGA and every detected factor, and carries the same
// factor-triggered guidance the generative path is prompted for.
func FallbackScript(userName, lga string, factors []domain.RiskFactor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, this is Sabi Health. There is a high risk in %s due to %s.",
		userName, lga, joinFactors(factors))

	if hasFactor(factors, domain.FactorLassaFever) {
		b.WriteString(" Abeg cover your food and water well well so rat no go touch am.")
	}
	if hasFactor(factors, domain.FactorMalaria) || hasFactor(factors, domain.FactorHeavyRain) {
		b.WriteString(" Use your mosquito net and clear any stagnant water around your house.")
	}

	b.WriteString(" How your body dey?")
	return b.String()
}

func hasFactor(factors []domain.RiskFactor, f domain.RiskFactor) bool {
	for _, have := range factors {
		if have == f {
			return true
		}
	}
	return false
}

// sanitize strips quote characters and surrounding whitespace; the script is
// fed to a TTS engine where stray quotes garble the reading.
func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func joinFactors(factors []domain.RiskFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func buildPrompt(userName, lga string, factors []domain.RiskFactor) string {
	var b strings.Builder
	b.WriteString("You are 'Sabi Health', a proactive and caring health assistant in Nigeria.\n")
	b.WriteString("Your tone should be warm, neighborly, and culturally resonant.\n")
	fmt.Fprintf(&b, "User Name: %s\n", userName)
	fmt.Fprintf(&b, "LGA: %s\n", lga)
	fmt.Fprintf(&b, "Risks detected: %s\n\n", joinFactors(factors))
	b.WriteString("TASK: Generate a short health alert message in authentic Nigerian Pidgin (blended with English where natural).\n\n")
	b.WriteString("GUIDELINES:\n")
	b.WriteString("1. Start with a friendly greeting using the user's name.\n")
	fmt.Fprintf(&b, "2. Mention that you're calling because of the high risk in %s.\n", lga)
	b.WriteString("3. If 'Lassa fever' is a risk, advise on covering food and keeping rats away.\n")
	b.WriteString("4. If 'malaria' or 'heavy rain' is a risk, advise on using mosquito nets and clearing stagnant water.\n")
	b.WriteString("5. Always end by asking: 'Anybody dey sick for your house?' or 'How your body dey?' to check for fever.\n")
	b.WriteString("6. Keep the total length under 60 words.\n")
	b.WriteString("7. Do NOT use overly formal medical jargon. Use 'well well', 'sharp sharp', 'no gree', etc., where appropriate.\n\n")
	b.WriteString("Example vibe: Abeg, make sure say you cover your food o, so rat no go touch am.")
	return b.String()
}

// Gemini generateContent API types.

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
