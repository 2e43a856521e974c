package analysis

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// SupportedLocales lists the languages insight prose is available in.
// The first entry is the fallback.
var SupportedLocales = []language.Tag{language.English, language.BrazilianPortuguese}

var localeMatcher = language.NewMatcher(SupportedLocales)

// MatchLocale resolves a BCP 47 string such as "pt-BR" or "en-GB" to the
// closest supported locale.
func MatchLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return SupportedLocales[0]
	}
	_, i, _ := localeMatcher.Match(tag)
	return SupportedLocales[i]
}

const (
	msgExpenseUpTitle   = "insight.expense.up.title"
	msgExpenseUpDesc    = "insight.expense.up.description"
	msgExpenseDownTitle = "insight.expense.down.title"
	msgExpenseDownDesc  = "insight.expense.down.description"
	msgRevenueUpTitle   = "insight.revenue.up.title"
	msgRevenueUpDesc    = "insight.revenue.up.description"
	msgRevenueDownTitle = "insight.revenue.down.title"
	msgRevenueDownDesc  = "insight.revenue.down.description"
	msgDominantTitle    = "insight.dominant.title"
	msgDominantDesc     = "insight.dominant.description"
	msgUnknownCategory  = "insight.dominant.unknown"
	msgAnomalyTitle     = "insight.anomaly.title"
	msgAnomalyDesc      = "insight.anomaly.description"
	msgSavingsGoodTitle = "insight.savings.good.title"
	msgSavingsGoodDesc  = "insight.savings.good.description"
	msgSavingsLowTitle  = "insight.savings.low.title"
	msgSavingsLowDesc   = "insight.savings.low.description"
	msgKPISavingsName   = "kpi.savings_rate.name"
	msgKPISavingsDesc   = "kpi.savings_rate.description"
	msgKPICountName     = "kpi.transaction_count.name"
	msgKPICountDesc     = "kpi.transaction_count.description"
	msgKPITicketName    = "kpi.average_expense_ticket.name"
	msgKPITicketDesc    = "kpi.average_expense_ticket.description"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		msgExpenseUpTitle:   "Spending increased",
		msgExpenseUpDesc:    "Your expenses increased %.1f%% compared to the previous period",
		msgExpenseDownTitle: "Spending decreased",
		msgExpenseDownDesc:  "Your expenses decreased %.1f%% compared to the previous period",
		msgRevenueUpTitle:   "Income increased",
		msgRevenueUpDesc:    "Your income increased %.1f%% compared to the previous period",
		msgRevenueDownTitle: "Income decreased",
		msgRevenueDownDesc:  "Your income decreased %.1f%% compared to the previous period",
		msgDominantTitle:    "Dominant category",
		msgDominantDesc:     "%.1f%% of your expenses are concentrated in %s",
		msgUnknownCategory:  "an unknown category",
		msgAnomalyTitle:     "Unusual expenses detected",
		msgSavingsGoodTitle: "Excellent savings rate",
		msgSavingsGoodDesc:  "You are saving %.1f%% of your income. Well done!",
		msgSavingsLowTitle:  "Low savings rate",
		msgSavingsLowDesc:   "You are saving only %.1f%% of your income. Consider reviewing your expenses.",
		msgKPISavingsName:   "Savings rate",
		msgKPISavingsDesc:   "Share of income you managed to save",
		msgKPICountName:     "Transactions",
		msgKPICountDesc:     "Total movements in the period",
		msgKPITicketName:    "Average expense ticket",
		msgKPITicketDesc:    "Average amount per expense transaction",
	},
	language.BrazilianPortuguese: {
		msgExpenseUpTitle:   "Aumento nos Gastos",
		msgExpenseUpDesc:    "Seus gastos aumentaram %.1f%% em relação ao período anterior",
		msgExpenseDownTitle: "Redução nos Gastos",
		msgExpenseDownDesc:  "Seus gastos diminuíram %.1f%% em relação ao período anterior",
		msgRevenueUpTitle:   "Aumento na Receita",
		msgRevenueUpDesc:    "Suas receitas aumentaram %.1f%% em relação ao período anterior",
		msgRevenueDownTitle: "Redução na Receita",
		msgRevenueDownDesc:  "Suas receitas diminuíram %.1f%% em relação ao período anterior",
		msgDominantTitle:    "Categoria Dominante",
		msgDominantDesc:     "%.1f%% dos seus gastos estão concentrados em %s",
		msgUnknownCategory:  "categoria desconhecida",
		msgAnomalyTitle:     "Gastos Atípicos Detectados",
		msgSavingsGoodTitle: "Excelente Taxa de Poupança",
		msgSavingsGoodDesc:  "Você está poupando %.1f%% da sua renda. Parabéns!",
		msgSavingsLowTitle:  "Taxa de Poupança Baixa",
		msgSavingsLowDesc:   "Você está poupando apenas %.1f%% da sua renda. Considere revisar seus gastos.",
		msgKPISavingsName:   "Taxa de Poupança",
		msgKPISavingsDesc:   "Percentual da renda que você conseguiu poupar",
		msgKPICountName:     "Número de Transações",
		msgKPICountDesc:     "Total de movimentações no período",
		msgKPITicketName:    "Ticket Médio de Gastos",
		msgKPITicketDesc:    "Valor médio por transação de despesa",
	},
}

// anomaly descriptions need plural selection on the count.
var anomalyPlurals = map[language.Tag][2]string{
	language.English: {
		"%d transaction well above your usual average",
		"%d transactions well above your usual average",
	},
	language.BrazilianPortuguese: {
		"%d transação com valor bem acima da sua média usual",
		"%d transações com valores bem acima da sua média usual",
	},
}

var insightCatalog = mustBuildCatalog()

func mustBuildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(SupportedLocales[0]))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("analysis: catalog %s/%s: %v", tag, key, err))
			}
		}
	}
	for tag, forms := range anomalyPlurals {
		err := b.Set(tag, msgAnomalyDesc, plural.Selectf(1, "%d",
			"=1", forms[0],
			"other", forms[1],
		))
		if err != nil {
			panic(fmt.Sprintf("analysis: catalog %s/%s: %v", tag, msgAnomalyDesc, err))
		}
	}
	return b
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(insightCatalog))
}
