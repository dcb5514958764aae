package statement

import (
	"strings"

	"github.com/bobmcallan/extrato/internal/models"
)

// doc builds a RawDocument from literal page texts.
func doc(pages ...string) models.RawDocument {
	for i, p := range pages {
		pages[i] = strings.TrimPrefix(p, "\n")
	}
	return models.NewRawDocumentFromText(pages, "holder-1", nil)
}

const modernPage1 = `
ACME BROKERAGE SERVICES
Statement Period: December 1, 2024 - December 31, 2024
PORTFOLIO HOLDINGS
EQUITIES
Description Acct Type Quantity Price Market Value
APPLE INC AAPL C 20 250.00 5,000.00
ISHARES CORE S&P 500 C 10 590.25 5,902.50
`

const modernPage2 = `
Page 2 of 2
Account Number: 123-45678
ETF IVV
Total Equities 10,902.50
ACCOUNT ACTIVITY
Type Date Acct Description Amount
EVENT 12/20/24 C ISHARES CORE S&P 500 ETF 2.134185 7.89
NRA WITHHOLDING TAX -2.37
QUALIFIED DIVIDEND 12/16/24 C APPLE INC AAPL 5.00
BOUGHT 12/18/24 C APPLE INC 10 250.00 -2,500.00
SETTLEMENT DATE 12/19/24
Total Account Activity
`

func modernDoc() models.RawDocument {
	return doc(modernPage1, modernPage2)
}

const sectionedPage1 = `
ACME CLEARING MONTHLY STATEMENT
Period Ending: 11/30/2024
ACCOUNT SUMMARY
Beginning Value 10,000.00
Ending Value 11,234.00
`

const sectionedPage2 = `
EQUITY HOLDINGS
Symbol Description Quantity Price Value
MSFT MICROSOFT CORP 10 420.00 4,200.00
VTI VANGUARD TOTAL STOCK MKT ETF 20 280.00 5,600.00
TOTAL EQUITY HOLDINGS 9,800.00
DIVIDENDS RECEIVED
Date Description Gross Tax Net
11/14/2024 MSFT MICROSOFT CORP 7.50 (1.13) 6.37
11/20/2024 VTI VANGUARD TOTAL STOCK MKT ETF
12.00 0.00 12.00
TOTAL DIVIDENDS 19.50
`

func sectionedDoc() models.RawDocument {
	return doc(sectionedPage1, sectionedPage2)
}

const legacyPage1 = `
CORRETORA EXEMPLO S.A.
Extrato Mensal - Período: 12/2024
RESUMO DA CARTEIRA
Ações 10.550,00
Proventos 27,40
`

const legacyPage2 = `
POSIÇÃO EM AÇÕES
Ativo Quantidade Preço Valor
ITAÚ UNIBANCO PN ITUB4 100 32,50 3.250,00
PETROBRAS PN PETR4 200 36,50 7.300,00
TOTAL 10.550,00
PROVENTOS
Data Tipo Ativo Valor
15/12/2024 DIVIDENDO ITAÚ UNIBANCO PN ITUB4 12,40
IRRF 0,00
20/12/2024 JUROS S/ CAPITAL PETROBRAS PN PETR4 15,00
IRRF 2,25
TOTAL 27,40
`

func legacyDoc() models.RawDocument {
	return doc(legacyPage1, legacyPage2)
}

// longLegacyDoc is a legacy statement padded past the short-document limit,
// so detection no longer recognises it and fallback has to.
func longLegacyDoc() models.RawDocument {
	pages := []string{legacyPage1, legacyPage2}
	for i := 0; i < 4; i++ {
		pages = append(pages, "Informações complementares\nNotas explicativas")
	}
	return doc(pages...)
}
