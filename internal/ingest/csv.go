// File path: internal/ingest/csv.go
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/contract"
)

// The structured export wraps each record in outer double quotes terminated
// by a semicolon; the payload is a comma-separated, quote-escaped record of
// exactly this many fields.
const structuredFieldCount = 20

// Column positions inside the unwrapped record.
const (
	colContrato = iota
	colInicioPrazo
	colFimPrazo
	colEmpresa
	colICJ
	colValorOriginal
	colMoeda
	colTaxaCambio
	colGerente
	colModalidade
	colTextoModalidade
	colReajuste
	colFornecedor
	colNomeFornecedor
	colTipoContrato
	colObjetoContrato
	colLinhaItem
	colLinhaDescricao
	colLinhaNumeroExterno
	colLinhaDescricao2
)

// parsedRow is one validated CSV record, typed at the parse boundary.
// Unparsable dates and numbers become nil instead of failing the row.
type parsedRow struct {
	Contrato        string
	InicioPrazo     *time.Time
	FimPrazo        *time.Time
	Empresa         *string
	ICJ             *string
	ValorOriginal   *float64
	Moeda           *string
	TaxaCambio      *float64
	Gerente         string
	Modalidade      *string
	TextoModalidade *string
	Reajuste        *string
	Fornecedor      *string
	NomeFornecedor  *string
	TipoContrato    *string
	ObjetoContrato  *string
	Linha           contract.LinhaServico
}

// readStructuredRows parses the export stream: the first parsed line is the
// header and is discarded, lines that do not unwrap to exactly 20 fields are
// skipped, and rows without a contrato identifier are dropped.
func readStructuredRows(r io.Reader) ([]parsedRow, error) {
	logger := common.Logger()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rows := make([]parsedRow, 0, 64)
	headerSeen := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields, err := unwrapRecord(line)
		if err != nil {
			logger.Debug("ingest: skipping malformed line", "line", lineNo, "error", err)
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		if len(fields) != structuredFieldCount {
			logger.Debug("ingest: skipping short line", "line", lineNo, "fields", len(fields))
			continue
		}
		row := parseRow(fields)
		if row.Contrato == "" {
			logger.Debug("ingest: skipping line without contrato", "line", lineNo)
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan structured export: %w", err)
	}
	return rows, nil
}

// unwrapRecord strips the outer quoting of one export line and parses the
// inner comma-separated record.
func unwrapRecord(line string) ([]string, error) {
	inner := strings.TrimSuffix(line, ";")
	if len(inner) >= 2 && strings.HasPrefix(inner, `"`) && strings.HasSuffix(inner, `"`) {
		inner = inner[1 : len(inner)-1]
		inner = strings.ReplaceAll(inner, `""`, `"`)
	}
	reader := csv.NewReader(strings.NewReader(inner))
	reader.LazyQuotes = true
	fields, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return fields, nil
}

func parseRow(fields []string) parsedRow {
	return parsedRow{
		Contrato:        strings.TrimSpace(fields[colContrato]),
		InicioPrazo:     parseDate(fields[colInicioPrazo]),
		FimPrazo:        parseDate(fields[colFimPrazo]),
		Empresa:         optional(fields[colEmpresa]),
		ICJ:             optional(fields[colICJ]),
		ValorOriginal:   parseFloat(fields[colValorOriginal]),
		Moeda:           optional(fields[colMoeda]),
		TaxaCambio:      parseFloat(fields[colTaxaCambio]),
		Gerente:         strings.TrimSpace(fields[colGerente]),
		Modalidade:      optional(fields[colModalidade]),
		TextoModalidade: optional(fields[colTextoModalidade]),
		Reajuste:        optional(fields[colReajuste]),
		Fornecedor:      optional(fields[colFornecedor]),
		NomeFornecedor:  optional(fields[colNomeFornecedor]),
		TipoContrato:    optional(fields[colTipoContrato]),
		ObjetoContrato:  optional(fields[colObjetoContrato]),
		Linha: contract.LinhaServico{
			Item:          strings.TrimSpace(fields[colLinhaItem]),
			Descricao:     strings.TrimSpace(fields[colLinhaDescricao]),
			NumeroExterno: strings.TrimSpace(fields[colLinhaNumeroExterno]),
			Descricao2:    strings.TrimSpace(fields[colLinhaDescricao2]),
		},
	}
}

// parseDate reads the export's YYYYMMDD date format; anything else is nil.
func parseDate(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.Parse("20060102", trimmed)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseFloat(value string) *float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
