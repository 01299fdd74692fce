package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/pkg/clients/gemini"
)

const systemPrompt = `You are the Legal Chicks Empowerment Network (LCEN) AI Co-Pilot. Your goal is to provide expert, actionable, and empathetic advice to small poultry farmers in the Cagayan Valley, Philippines. Base your recommendations on poultry industry best practices, prioritizing biosecurity, cost efficiency, and revenue generation from egg layers (Rhode Island Reds - RIR). Format your response strictly using Markdown with H3 headings for Diagnosis and Action Plan. Use PHP currency (₱) where appropriate.`

const (
	msgNotConfigured = "Error: The AI advisor is not configured. Please contact support."
	msgUnavailable   = "Error: Could not generate the AI report at this time. Please try again later."
)

// Service turns a member's KPI snapshot into a Markdown advisory report.
type Service struct {
	client gemini.Client // nil when no API key is configured
	logger *zap.Logger
}

// NewService wires a new advisor service instance.
func NewService(client gemini.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// GenerateReport produces the Diagnosis / Action Plan report for a snapshot.
// A failure never propagates as an error: the member always gets displayable
// report text, even when that text is an apology.
func (s *Service) GenerateReport(ctx context.Context, snap models.KPISnapshot) string {
	if s.client == nil {
		s.logger.Warn("advisory report requested without a configured model")
		return msgNotConfigured
	}

	report, err := s.client.GenerateText(ctx, systemPrompt, buildPrompt(snap))
	if err != nil {
		s.logger.Error("failed generating advisory report", zap.Error(err))
		return msgUnavailable
	}
	return report
}

func buildPrompt(snap models.KPISnapshot) string {
	var b strings.Builder
	b.WriteString("Analyze the following current farm health metrics for a layer operation in the Legal Chicks Empowerment Network (LCEN):\n")
	fmt.Fprintf(&b, "- Feed Conversion Ratio (FCR): %s\n", metric(snap.FCR, "%.2f"))
	fmt.Fprintf(&b, "- Egg Production Rate (Hen-Day %%): %s\n", metric(snap.EggProductionRate, "%.1f%%"))
	fmt.Fprintf(&b, "- Feed Cost per Egg: %s\n", metric(snap.FeedCostPerEgg, "₱%.2f"))
	fmt.Fprintf(&b, "- 7-Day Mortality Rate: %s\n", metric(snap.MortalityRate, "%.1f%%"))
	b.WriteString("\nProvide a two-part response:\n")
	b.WriteString("1. Diagnosis (H3): A concise, single-paragraph analysis of the farm's overall health and the most critical area needing attention.\n")
	b.WriteString("2. Action Plan (H3): A maximum of three bullet points providing specific, actionable steps to address the critical area, aligning with LCEN's focus on biosecurity and feed efficiency. Use simple, direct language suitable for a farmer.\n")
	return b.String()
}

// metric formats a KPI value, showing N/A for a metric with no data yet.
func metric(value float64, format string) string {
	if value == 0 {
		return "N/A"
	}
	return fmt.Sprintf(format, value)
}
