// File path: internal/processing/processor.go
package processing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbertoni/contratos/internal/common"
	"github.com/vbertoni/contratos/internal/contract"
	"github.com/vbertoni/contratos/internal/llm"
	"github.com/vbertoni/contratos/internal/sqlite"
)

// Execution tipo tags for the prompt pipeline.
const (
	TipoAdhoc      = "adhoc"
	TipoRegistrado = "registrado"
)

const defaultMaxConcurrent = 3

// Store is the slice of the relational store the processor depends on.
// *sqlite.Store satisfies it; tests inject fakes.
type Store interface {
	ListContracts(ctx context.Context) ([]sqlite.Contract, error)
	ListPrompts(ctx context.Context) ([]sqlite.Prompt, error)
	CreateExecution(ctx context.Context, ex sqlite.Execution) (int64, error)
	UpdateExecution(ctx context.Context, id int64, upd sqlite.ExecutionUpdate) error
	AddExecutionResult(ctx context.Context, result sqlite.ExecutionResult) (int64, error)
}

// ExhaustiveProcessor applies a prompt to every stored contract, recording
// one result row per contract and publishing aggregate progress on the
// execution row.
type ExhaustiveProcessor struct {
	store         Store
	provider      llm.Provider
	maxConcurrent int
}

type ProcessorOption func(*ExhaustiveProcessor)

// WithMaxConcurrent overrides the number of contracts in flight at once.
func WithMaxConcurrent(n int) ProcessorOption {
	return func(p *ExhaustiveProcessor) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

func NewExhaustiveProcessor(store Store, provider llm.Provider, opts ...ProcessorOption) *ExhaustiveProcessor {
	p := &ExhaustiveProcessor{
		store:         store,
		provider:      provider,
		maxConcurrent: defaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type promptRun struct {
	promptID *int64
	text     string
	tipo     string
}

// Run executes one ad-hoc prompt, or every registered prompt when adhoc is
// blank, against a single snapshot of the stored contracts. It returns the
// execution ids created, one per prompt, in submission order.
//
// A model or storage failure inside a prompt run aborts that run: the
// execution row is finalized as failed, already-written result rows remain,
// and the error propagates to the caller.
func (p *ExhaustiveProcessor) Run(ctx context.Context, adhoc string) ([]int64, error) {
	logger := common.Logger()
	contracts, err := p.store.ListContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contract snapshot: %w", err)
	}

	var runs []promptRun
	if trimmed := strings.TrimSpace(adhoc); trimmed != "" {
		runs = []promptRun{{text: adhoc, tipo: TipoAdhoc}}
	} else {
		prompts, err := p.store.ListPrompts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load registered prompts: %w", err)
		}
		for _, prompt := range prompts {
			id := prompt.ID
			runs = append(runs, promptRun{promptID: &id, text: prompt.Texto, tipo: TipoRegistrado})
		}
	}
	logger.Info("processor: starting prompt runs", "prompts", len(runs), "contracts", len(contracts))

	execIDs := make([]int64, 0, len(runs))
	for _, run := range runs {
		tipo := run.tipo
		text := run.text
		execID, err := p.store.CreateExecution(ctx, sqlite.Execution{
			TaskName:   "prompt_execution",
			ClassName:  "ExhaustiveProcessor",
			Tipo:       &tipo,
			PromptID:   run.promptID,
			PromptText: &text,
		})
		if err != nil {
			return execIDs, fmt.Errorf("create execution: %w", err)
		}
		execIDs = append(execIDs, execID)
		if err := p.runSingle(ctx, execID, run.text, contracts); err != nil {
			p.markFailed(ctx, execID)
			return execIDs, err
		}
	}
	return execIDs, nil
}

// runSingle fans one prompt out across the contract snapshot under the
// concurrency cap and finalizes the execution on success.
func (p *ExhaustiveProcessor) runSingle(ctx context.Context, execID int64, promptText string, contracts []sqlite.Contract) error {
	total := len(contracts)
	var (
		mu        sync.Mutex
		processed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i := range contracts {
		row := contracts[i]
		g.Go(func() error {
			c, err := contract.FromRow(&row)
			if err != nil {
				return err
			}
			texto := promptText + "\n\n" + c.Relatorio()
			resposta, err := p.provider.Chat(gctx, []llm.Message{{Role: "user", Content: texto}})
			if err != nil {
				return fmt.Errorf("invoke model for contract %d: %w", row.ID, err)
			}
			result := sqlite.ExecutionResult{
				ExecutionID:      execID,
				ContractID:       &row.ID,
				RespostaCompleta: &resposta,
				RespostaSimples:  firstLine(resposta),
			}
			if _, err := p.store.AddExecutionResult(gctx, result); err != nil {
				return fmt.Errorf("record result for contract %d: %w", row.ID, err)
			}
			// Progress publication is serialized so completions racing each
			// other never write a stale count.
			mu.Lock()
			defer mu.Unlock()
			processed++
			progress := float64(processed) / float64(total) * 100
			if err := p.store.UpdateExecution(gctx, execID, sqlite.ExecutionUpdate{Progress: &progress}); err != nil {
				return fmt.Errorf("publish progress: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := time.Now().UTC()
	status := StatusSuccess
	progress := 100.0
	if err := p.store.UpdateExecution(ctx, execID, sqlite.ExecutionUpdate{
		Status:   &status,
		EndTime:  &now,
		Progress: &progress,
	}); err != nil {
		return fmt.Errorf("finalize execution %d: %w", execID, err)
	}
	common.Logger().Info("processor: prompt run complete", "execution", execID, "contracts", total)
	return nil
}

// markFailed finalizes an aborted run. Best effort: the original error is
// what the caller sees, so a failed finalization write is only logged.
func (p *ExhaustiveProcessor) markFailed(ctx context.Context, execID int64) {
	now := time.Now().UTC()
	status := StatusFailed
	if err := p.store.UpdateExecution(ctx, execID, sqlite.ExecutionUpdate{
		Status:  &status,
		EndTime: &now,
	}); err != nil {
		common.Logger().Error("processor: failed to mark execution failed", "execution", execID, "error", err)
	}
}

// firstLine reduces a model response to its simple form: nil for a missing
// response, otherwise the first line of the trimmed text. A whitespace-only
// response reduces to the empty string, not nil.
func firstLine(resposta string) *string {
	if resposta == "" {
		return nil
	}
	line, _, _ := strings.Cut(strings.TrimSpace(resposta), "\n")
	return &line
}
