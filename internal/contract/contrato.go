// File path: internal/contract/contrato.go

// Package contract holds the in-memory contract record decoded from the
// relational store, plus the plain-text report rendering consumed by the
// prompt pipeline.
package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vbertoni/contratos/internal/sqlite"
)

// LinhaServico is one service-line sub-record of a contract, in the order
// the structured export presents its four columns.
type LinhaServico struct {
	Item          string `json:"item"`
	Descricao     string `json:"descricao"`
	NumeroExterno string `json:"numeroExterno"`
	Descricao2    string `json:"descricao2"`
}

// Contrato is a contract loaded from the relational store with its JSON
// columns decoded.
type Contrato struct {
	ID            int64
	Name          string
	Path          string
	IngestionDate *time.Time
	LastProcessed *time.Time

	Contrato               *string
	InicioPrazo            *time.Time
	FimPrazo               *time.Time
	Empresa                *string
	ICJ                    *string
	ValorContratoOriginal  *float64
	Moeda                  *string
	TaxaCambio             *float64
	GerenteContrato        *string
	NomeGerenteContrato    *string
	LotacaoGerenteContrato *string
	AreaContrato           *string
	Modalidade             *string
	TextoModalidade        *string
	Reajuste               *string
	Fornecedor             *string
	NomeFornecedor         *string
	TipoContrato           *string
	ObjetoContrato         *string

	LinhasServico  []LinhaServico
	VetorEmbedding []float64
	TextoCompleto  *string
}

// FromRow decodes a stored contract row, including the JSON-serialized
// service lines and embedding vector.
func FromRow(row *sqlite.Contract) (*Contrato, error) {
	if row == nil {
		return nil, fmt.Errorf("nil contract row")
	}
	c := &Contrato{
		ID:                     row.ID,
		Name:                   row.Name,
		Path:                   row.Path,
		IngestionDate:          row.IngestionDate,
		LastProcessed:          row.LastProcessed,
		Contrato:               row.Contrato,
		InicioPrazo:            row.InicioPrazo,
		FimPrazo:               row.FimPrazo,
		Empresa:                row.Empresa,
		ICJ:                    row.ICJ,
		ValorContratoOriginal:  row.ValorContratoOriginal,
		Moeda:                  row.Moeda,
		TaxaCambio:             row.TaxaCambio,
		GerenteContrato:        row.GerenteContrato,
		NomeGerenteContrato:    row.NomeGerenteContrato,
		LotacaoGerenteContrato: row.LotacaoGerenteContrato,
		AreaContrato:           row.AreaContrato,
		Modalidade:             row.Modalidade,
		TextoModalidade:        row.TextoModalidade,
		Reajuste:               row.Reajuste,
		Fornecedor:             row.Fornecedor,
		NomeFornecedor:         row.NomeFornecedor,
		TipoContrato:           row.TipoContrato,
		ObjetoContrato:         row.ObjetoContrato,
		TextoCompleto:          row.TextoCompleto,
	}
	if row.LinhasServico != nil && strings.TrimSpace(*row.LinhasServico) != "" {
		if err := json.Unmarshal([]byte(*row.LinhasServico), &c.LinhasServico); err != nil {
			return nil, fmt.Errorf("decode linhasServico for contract %d: %w", row.ID, err)
		}
	}
	if row.VetorEmbedding != nil && strings.TrimSpace(*row.VetorEmbedding) != "" {
		if err := json.Unmarshal([]byte(*row.VetorEmbedding), &c.VetorEmbedding); err != nil {
			return nil, fmt.Errorf("decode vetor_embedding for contract %d: %w", row.ID, err)
		}
	}
	return c, nil
}

// EncodeLinhas serializes service lines for storage in the linhasServico
// column.
func EncodeLinhas(linhas []LinhaServico) (string, error) {
	data, err := json.Marshal(linhas)
	if err != nil {
		return "", fmt.Errorf("encode linhasServico: %w", err)
	}
	return string(data), nil
}

// String delegates to Relatorio.
func (c *Contrato) String() string {
	return c.Relatorio()
}

// Relatorio renders the contract as the field-by-field text report submitted
// to the language model: one "campo: valor" line per field, with the service
// lines laid out as a simple aligned table.
func (c *Contrato) Relatorio() string {
	var b strings.Builder
	writeField := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeField("id", strconv.FormatInt(c.ID, 10))
	writeField("name", c.Name)
	writeField("path", c.Path)
	writeField("ingestion_date", formatTime(c.IngestionDate))
	writeField("last_processed", formatTime(c.LastProcessed))
	writeField("contrato", formatString(c.Contrato))
	writeField("inicioPrazo", formatDate(c.InicioPrazo))
	writeField("fimPrazo", formatDate(c.FimPrazo))
	writeField("empresa", formatString(c.Empresa))
	writeField("icj", formatString(c.ICJ))
	writeField("valorContratoOriginal", formatFloat(c.ValorContratoOriginal))
	writeField("moeda", formatString(c.Moeda))
	writeField("taxaCambio", formatFloat(c.TaxaCambio))
	writeField("gerenteContrato", formatString(c.GerenteContrato))
	writeField("nomeGerenteContrato", formatString(c.NomeGerenteContrato))
	writeField("lotacaoGerenteContrato", formatString(c.LotacaoGerenteContrato))
	writeField("areaContrato", formatString(c.AreaContrato))
	writeField("modalidade", formatString(c.Modalidade))
	writeField("textoModalidade", formatString(c.TextoModalidade))
	writeField("reajuste", formatString(c.Reajuste))
	writeField("fornecedor", formatString(c.Fornecedor))
	writeField("nomeFornecedor", formatString(c.NomeFornecedor))
	writeField("tipoContrato", formatString(c.TipoContrato))
	writeField("objetoContrato", formatString(c.ObjetoContrato))

	b.WriteString("linhasServico:\n")
	if len(c.LinhasServico) == 0 {
		b.WriteString("<vazio>\n")
	} else {
		header := strings.Join([]string{"item", "descricao", "numeroExterno", "descricao2"}, " | ")
		b.WriteString(header)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("-", len(header)))
		b.WriteByte('\n')
		for _, linha := range c.LinhasServico {
			b.WriteString(strings.Join([]string{linha.Item, linha.Descricao, linha.NumeroExterno, linha.Descricao2}, " | "))
			b.WriteByte('\n')
		}
	}

	writeField("texto_completo", formatString(c.TextoCompleto))
	return strings.TrimRight(b.String(), "\n")
}

func formatString(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

func formatFloat(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format("2006-01-02")
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.UTC().Format(time.RFC3339)
}
