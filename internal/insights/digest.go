package insights

import (
	"fmt"
	"strings"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
)

// BuildDigest renders a size-bounded, structured summary of a metrics bundle
// for the text-generation provider. The product language is Portuguese.
func BuildDigest(bundle *analytics.Bundle) string {
	var b strings.Builder
	b.WriteString("Dados de custos para análise:\n")
	fmt.Fprintf(&b, "- Custo total: $%.2f\n", bundle.Total)
	if bundle.Stats.Mean != nil {
		fmt.Fprintf(&b, "- Custo médio por linha: $%.2f\n", *bundle.Stats.Mean)
	}
	if bundle.Stats.Max != nil {
		fmt.Fprintf(&b, "- Custo máximo por linha: $%.2f\n", *bundle.Stats.Max)
	}
	if bundle.Stats.Min != nil {
		fmt.Fprintf(&b, "- Custo mínimo por linha: $%.2f\n", *bundle.Stats.Min)
	}
	if bundle.Highlights.PeakMonth != "" {
		fmt.Fprintf(&b, "- Mês de maior gasto: %s\n", bundle.Highlights.PeakMonth)
	}
	if bundle.Highlights.LowestMonth != "" {
		fmt.Fprintf(&b, "- Mês de menor gasto: %s\n", bundle.Highlights.LowestMonth)
	}
	if bundle.Highlights.PeakService != "" {
		fmt.Fprintf(&b, "- Serviço mais caro: %s\n", bundle.Highlights.PeakService)
	}
	if bundle.Highlights.LowestService != "" {
		fmt.Fprintf(&b, "- Serviço mais barato: %s\n", bundle.Highlights.LowestService)
	}
	if variation, ok := monthOverMonth(bundle.Monthly); ok {
		fmt.Fprintf(&b, "- Variação mês a mês: %+.1f%%\n", variation)
	}

	top := bundle.TopN
	if len(top) > 5 {
		top = top[:5]
	}
	if len(top) > 0 {
		b.WriteString("\nTop serviços por custo:\n")
		for _, st := range top {
			fmt.Fprintf(&b, "- %s: $%.2f (%.1f%%)\n", st.Service, st.Total, st.Percentage)
		}
	}
	return b.String()
}

// monthOverMonth compares the two most recent months; the previous month must
// be positive for the variation to be meaningful.
func monthOverMonth(monthly []analytics.MonthTotal) (float64, bool) {
	if len(monthly) < 2 {
		return 0, false
	}
	last := monthly[len(monthly)-1].Total
	prev := monthly[len(monthly)-2].Total
	if prev <= 0 {
		return 0, false
	}
	return (last - prev) / prev * 100, true
}
