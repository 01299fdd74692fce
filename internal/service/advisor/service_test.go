package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalchicks/coopnet/internal/domain/models"
)

type fakeGemini struct {
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (f *fakeGemini) GenerateText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply, f.err
}

func TestGenerateReportIncludesMetrics(t *testing.T) {
	client := &fakeGemini{reply: "### Diagnosis\nLooks healthy."}
	svc := NewService(client, nil)

	report := svc.GenerateReport(context.Background(), models.KPISnapshot{
		FCR:               2.1,
		EggProductionRate: 85.5,
		FeedCostPerEgg:    5.25,
		MortalityRate:     1.2,
	})

	assert.Equal(t, "### Diagnosis\nLooks healthy.", report)
	assert.Contains(t, client.lastUser, "2.10")
	assert.Contains(t, client.lastUser, "85.5%")
	assert.Contains(t, client.lastUser, "₱5.25")
	assert.Contains(t, client.lastUser, "1.2%")
	assert.Contains(t, client.lastSystem, "AI Co-Pilot")
}

func TestGenerateReportMissingMetricsShowNA(t *testing.T) {
	client := &fakeGemini{reply: "ok"}
	svc := NewService(client, nil)

	svc.GenerateReport(context.Background(), models.KPISnapshot{})
	assert.Contains(t, client.lastUser, "Feed Conversion Ratio (FCR): N/A")
}

func TestGenerateReportFailureIsDisplayedNotPropagated(t *testing.T) {
	client := &fakeGemini{err: errors.New("quota exhausted")}
	svc := NewService(client, nil)

	report := svc.GenerateReport(context.Background(), models.KPISnapshot{FCR: 2})
	require.NotEmpty(t, report)
	assert.Contains(t, report, "Error:")
	assert.NotContains(t, report, "quota exhausted", "provider internals never reach the member")
}

func TestGenerateReportWithoutClient(t *testing.T) {
	svc := NewService(nil, nil)

	report := svc.GenerateReport(context.Background(), models.KPISnapshot{})
	assert.Contains(t, report, "not configured")
}
