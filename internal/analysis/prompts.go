package analysis

import (
	"fmt"
	"strings"
)

const schemaExample = `{
  "summary_points": [%s],
  "key_info": {
    "people": [%s],
    "organizations": [%s],
    "public_agencies": [%s],
    "time_period": %s
  },
  "flags": {
    "unusual_wording": [%s],
    "discrepancies_and_criticism": [%s],
    "financial_figures": [%s],
    "warnings_and_gaps": [%s],
    "other_flags": [%s]
  }
}`

var singleSchema = fmt.Sprintf(schemaExample,
	`"Punkt 1", "Punkt 2", "Punkt 3", "Punkt 4", "Punkt 5"`,
	`"Person 1", "Person 2"`,
	`"Selskap 1", "Selskap 2"`,
	`"Etat 1", "Etat 2"`,
	`"Beskrivelse av tidsperiode"`,
	`"Formulering 1", "Formulering 2"`,
	`"Kritikk 1", "Kritikk 2"`,
	`"Beløp/tall 1", "Beløp/tall 2"`,
	`"Varsel 1", "Varsel 2"`,
	`"Flagg 1", "Flagg 2"`,
)

var chunkSchema = fmt.Sprintf(schemaExample,
	`"Viktige punkter fra denne delen"`,
	`"Personer nevnt i denne delen"`,
	`"Selskaper nevnt i denne delen"`,
	`"Etater nevnt i denne delen"`,
	`"Tidsinfo fra denne delen"`,
	`"Mistenkelige formuleringer"`,
	`"Kritikk og avvik"`,
	`"Tall og beløp"`,
	`"Mangler og varsler"`,
	`"Andre bekymringer"`,
)

var synthesisSchema = fmt.Sprintf(schemaExample,
	`"5-8 hovedpunkter fra hele dokumentet"`,
	`"Alle personer nevnt i dokumentet"`,
	`"Alle selskaper nevnt i dokumentet"`,
	`"Alle etater nevnt i dokumentet"`,
	`"Samlet tidsperiode for dokumentet"`,
	`"Alle mistenkelige formuleringer"`,
	`"All kritikk og avvik"`,
	`"Alle viktige tall og beløp"`,
	`"Alle mangler og varsler"`,
	`"Andre bekymringsfulle elementer"`,
)

var singleSystemPrompt = `Du er en AI-assistent som analyserer dokumenter for en redaksjon.
Returner resultatet som gyldig JSON i følgende format:

` + singleSchema + `

Analyser dokumentet objektivt og detaljert på norsk.`

func singleUserPrompt(text string) string {
	return "Analyser følgende dokument:\n\n" + text
}

func chunkPrompt(ordinal, total int, text string) string {
	return fmt.Sprintf(`Analyser denne delen av et større dokument for en redaksjon.
Returner resultatet som gyldig JSON:

%s

Del %d av %d:
%s`, chunkSchema, ordinal, total, text)
}

// synthesisPrompt embeds the per-chunk outputs labelled by ordinal, in order.
func synthesisPrompt(analyses []string) string {
	labelled := make([]string, len(analyses))
	for i, a := range analyses {
		labelled[i] = fmt.Sprintf("Del %d: %s", i+1, a)
	}
	return fmt.Sprintf(`Du har mottatt analyser av %d deler av et dokument for en redaksjon.
Kombiner og syntetiser disse analysene til en sammenhengende, komplett analyse.
Fjern duplikater av personer, selskaper og etater. Gi 5-8 hovedpunkter.
Returner resultatet som gyldig JSON:

%s

Analyser fra delene:
%s`, len(analyses), synthesisSchema, strings.Join(labelled, "\n"))
}

const repairSystemPrompt = `Du reparerer ødelagt JSON. Svar kun med gyldig JSON, uten forklaring og uten markdown.`

func repairPrompt(raw string) string {
	return fmt.Sprintf(`Følgende tekst skulle vært gyldig JSON i dette formatet:

%s

Rett teksten slik at den blir gyldig JSON i formatet over. Behold innholdet, ikke finn på nytt innhold.

Tekst:
%s`, singleSchema, raw)
}
