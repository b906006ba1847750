package insights

import (
	"context"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/llm"
	"github.com/vaniusmax/projeto-finops/internal/shared/metrics"
	"github.com/vaniusmax/projeto-finops/internal/shared/telemetry"
)

const defaultTimeout = 30 * time.Second

const insightsSystemPrompt = `Você é um analista FinOps experiente. Gere insights executivos em português brasileiro sobre custos de cloud.
Seja objetivo, use linguagem gerencial e destaque pontos importantes para tomada de decisão.
Estruture com: parágrafo inicial de resumo, bullet points com destaques, e seção "Riscos e Oportunidades".`

const chatSystemPrompt = `Você é um assistente especializado em análise de custos FinOps.
Responda perguntas sobre os custos usando apenas o resumo de dados fornecido.
Responda em português brasileiro, de forma objetiva e clara.
Se o resumo não contiver a informação pedida, diga isso explicitamente em vez de inventar números.`

// Service generates natural-language insights and chat answers from a
// metrics bundle. Every call is bounded by its own timeout; failures stay
// inside this panel and never interrupt the analytics pipeline.
type Service struct {
	LLM     llm.Client
	Timeout time.Duration
}

// NewService constructs a Service.
func NewService(client llm.Client, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{LLM: client, Timeout: timeout}
}

// Insights produces an executive summary of the bundle.
func (s *Service) Insights(ctx context.Context, bundle *analytics.Bundle) (string, error) {
	user := "Analise os seguintes dados de custos e gere um resumo executivo:\n\n" +
		BuildDigest(bundle) +
		"\nGere insights focados em:\n" +
		"1. Resumo do período\n" +
		"2. Principais destaques (crescimento, redução, serviços dominantes)\n" +
		"3. Riscos e oportunidades de otimização\n"
	return s.generate(ctx, insightsSystemPrompt, user)
}

// Chat answers a free-form question grounded on the bundle digest.
func (s *Service) Chat(ctx context.Context, bundle *analytics.Bundle, question string) (string, error) {
	user := "Resumo dos dados disponíveis:\n\n" +
		BuildDigest(bundle) +
		"\nPergunta do usuário: " + question + "\n"
	return s.generate(ctx, chatSystemPrompt, user)
}

func (s *Service) generate(ctx context.Context, system, user string) (string, error) {
	metrics.IncInsightCall()
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.LLM.Generate(ctx, system, user)
	if err != nil {
		metrics.IncInsightError()
		telemetry.Warn("insights.generate.failed", map[string]any{
			"err": err.Error(),
		})
		return "", err
	}
	return out, nil
}
