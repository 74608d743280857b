// File path: internal/sqlite/types.go
package sqlite

import "time"

// Contract is a stored contract row. The structured ingestion path keys rows
// by the business identifier in Contrato; the document path keys them by
// Path. Optional columns are pointers so absent values round-trip as NULL.
type Contract struct {
	ID            int64      `db:"id"`
	Name          string     `db:"name"`
	Path          string     `db:"path"`
	IngestionDate *time.Time `db:"ingestion_date"`
	LastProcessed *time.Time `db:"last_processed"`

	Contrato               *string    `db:"contrato"`
	InicioPrazo            *time.Time `db:"inicioPrazo"`
	FimPrazo               *time.Time `db:"fimPrazo"`
	Empresa                *string    `db:"empresa"`
	ICJ                    *string    `db:"icj"`
	ValorContratoOriginal  *float64   `db:"valorContratoOriginal"`
	Moeda                  *string    `db:"moeda"`
	TaxaCambio             *float64   `db:"taxaCambio"`
	GerenteContrato        *string    `db:"gerenteContrato"`
	NomeGerenteContrato    *string    `db:"nomeGerenteContrato"`
	LotacaoGerenteContrato *string    `db:"lotacaoGerenteContrato"`
	AreaContrato           *string    `db:"areaContrato"`
	Modalidade             *string    `db:"modalidade"`
	TextoModalidade        *string    `db:"textoModalidade"`
	Reajuste               *string    `db:"reajuste"`
	Fornecedor             *string    `db:"fornecedor"`
	NomeFornecedor         *string    `db:"nomeFornecedor"`
	TipoContrato           *string    `db:"tipoContrato"`
	ObjetoContrato         *string    `db:"objetoContrato"`

	// LinhasServico and VetorEmbedding carry JSON-serialized payloads.
	LinhasServico  *string `db:"linhasServico"`
	VetorEmbedding *string `db:"vetor_embedding"`
	TextoCompleto  *string `db:"texto_completo"`
}

// Prompt is a reusable analysis template applied to the whole corpus.
type Prompt struct {
	ID            int64   `db:"id"`
	Nome          string  `db:"nome"`
	Texto         string  `db:"texto"`
	Periodicidade *string `db:"periodicidade"`
}

// Execution is one tracked pipeline run: either a structured ingest or a
// single prompt applied to every contract.
type Execution struct {
	ID         int64      `db:"id"`
	TaskName   string     `db:"task_name"`
	ClassName  string     `db:"class_name"`
	Tipo       *string    `db:"tipo"`
	PromptID   *int64     `db:"prompt_id"`
	PromptText *string    `db:"prompt_text"`
	StartTime  time.Time  `db:"start_time"`
	EndTime    *time.Time `db:"end_time"`
	Status     string     `db:"status"`
	Progress   float64    `db:"progress"`
	Message    *string    `db:"message"`
}

// ExecutionResult is the model output recorded for one (execution, contract)
// pair. Rows are immutable once written.
type ExecutionResult struct {
	ID               int64    `db:"id"`
	ExecutionID      int64    `db:"execution_id"`
	ContractID       *int64   `db:"contract_id"`
	RespostaCompleta *string  `db:"resposta_completa"`
	RespostaSimples  *string  `db:"resposta_simples"`
	Confianca        *float64 `db:"confianca"`
}

// ExecutionUpdate applies only its non-nil fields to an execution row.
type ExecutionUpdate struct {
	Progress *float64
	Status   *string
	EndTime  *time.Time
	Message  *string
}
