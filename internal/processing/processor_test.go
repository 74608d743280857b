// File path: internal/processing/processor_test.go
package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vbertoni/contratos/internal/llm/providers"
	"github.com/vbertoni/contratos/internal/sqlite"
)

func seedContracts(t *testing.T, store *sqlite.Store, contratos ...string) {
	t.Helper()
	ctx := context.Background()
	for _, contrato := range contratos {
		c := contrato
		if _, err := store.AddContractStructured(ctx, sqlite.Contract{Contrato: &c}); err != nil {
			t.Fatalf("seed contract %s: %v", contrato, err)
		}
	}
}

type failingProvider struct{}

func (failingProvider) Chat(context.Context, []providers.Message) (string, error) {
	return "", errors.New("model unavailable")
}

func (failingProvider) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model unavailable")
}

func (failingProvider) Name() string { return "failing" }

func TestRunAdhocPrompt(t *testing.T) {
	store := newTestStore(t)
	seedContracts(t, store, "4600000001", "4600000002", "4600000003")
	processor := NewExhaustiveProcessor(store, providers.NewLocalProvider())
	ctx := context.Background()

	execIDs, err := processor.Run(ctx, "Qual a vigencia do contrato?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(execIDs) != 1 {
		t.Fatalf("expected one execution, got %d", len(execIDs))
	}

	execution, err := store.GetExecution(ctx, execIDs[0])
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	if execution.Status != StatusSuccess || execution.Progress != 100 {
		t.Fatalf("unexpected execution state: %+v", execution)
	}
	if execution.Tipo == nil || *execution.Tipo != TipoAdhoc {
		t.Fatalf("expected tipo adhoc, got %v", execution.Tipo)
	}
	if execution.PromptID != nil {
		t.Fatal("adhoc run should not reference a registered prompt")
	}
	if execution.PromptText == nil || *execution.PromptText != "Qual a vigencia do contrato?" {
		t.Fatalf("prompt text not recorded: %v", execution.PromptText)
	}
	if execution.EndTime == nil {
		t.Fatal("expected end_time on finished execution")
	}

	results, err := store.ResultsForExecution(ctx, execIDs[0])
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected one result per contract, got %d", len(results))
	}
	for _, result := range results {
		if result.ContractID == nil {
			t.Fatal("result missing contract reference")
		}
		if result.RespostaCompleta == nil || !strings.HasPrefix(*result.RespostaCompleta, "[local-stub] ") {
			t.Fatalf("unexpected resposta: %v", result.RespostaCompleta)
		}
		if result.RespostaSimples == nil || strings.Contains(*result.RespostaSimples, "\n") {
			t.Fatalf("resposta_simples should be single line: %v", result.RespostaSimples)
		}
	}
}

func TestRunRegisteredPrompts(t *testing.T) {
	store := newTestStore(t)
	seedContracts(t, store, "4600000001", "4600000002")
	ctx := context.Background()
	if _, err := store.AddPrompt(ctx, "vigencia", "Qual a vigencia?", nil); err != nil {
		t.Fatalf("add prompt: %v", err)
	}
	if _, err := store.AddPrompt(ctx, "valor", "Qual o valor original?", nil); err != nil {
		t.Fatalf("add prompt: %v", err)
	}

	processor := NewExhaustiveProcessor(store, providers.NewLocalProvider())
	execIDs, err := processor.Run(ctx, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(execIDs) != 2 {
		t.Fatalf("expected one execution per prompt, got %d", len(execIDs))
	}

	for _, execID := range execIDs {
		execution, err := store.GetExecution(ctx, execID)
		if err != nil {
			t.Fatalf("get execution %d: %v", execID, err)
		}
		if execution.Tipo == nil || *execution.Tipo != TipoRegistrado {
			t.Fatalf("expected tipo registrado, got %v", execution.Tipo)
		}
		if execution.PromptID == nil {
			t.Fatal("registered run should reference its prompt")
		}
		results, err := store.ResultsForExecution(ctx, execID)
		if err != nil {
			t.Fatalf("list results for %d: %v", execID, err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
	}
}

func TestRunEmptyCorpus(t *testing.T) {
	store := newTestStore(t)
	processor := NewExhaustiveProcessor(store, providers.NewLocalProvider())
	ctx := context.Background()

	execIDs, err := processor.Run(ctx, "Qual a vigencia?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(execIDs) != 1 {
		t.Fatalf("expected one execution, got %d", len(execIDs))
	}
	execution, err := store.GetExecution(ctx, execIDs[0])
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	if execution.Status != StatusSuccess || execution.Progress != 100 {
		t.Fatalf("empty corpus should finish at 100, got %+v", execution)
	}
	results, err := store.ResultsForExecution(ctx, execIDs[0])
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestRunWithoutRegisteredPrompts(t *testing.T) {
	store := newTestStore(t)
	seedContracts(t, store, "4600000001")
	processor := NewExhaustiveProcessor(store, providers.NewLocalProvider())

	execIDs, err := processor.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(execIDs) != 0 {
		t.Fatalf("expected no executions without prompts, got %d", len(execIDs))
	}
}

// recordingStore captures every progress value published to an execution
// row, so the concurrent publication order can be asserted.
type recordingStore struct {
	mu        sync.Mutex
	contracts []sqlite.Contract
	progress  []float64
	nextID    int64
}

func (r *recordingStore) ListContracts(context.Context) ([]sqlite.Contract, error) {
	return r.contracts, nil
}

func (r *recordingStore) ListPrompts(context.Context) ([]sqlite.Prompt, error) {
	return nil, nil
}

func (r *recordingStore) CreateExecution(context.Context, sqlite.Execution) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID, nil
}

func (r *recordingStore) UpdateExecution(_ context.Context, _ int64, upd sqlite.ExecutionUpdate) error {
	if upd.Progress == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, *upd.Progress)
	return nil
}

func (r *recordingStore) AddExecutionResult(context.Context, sqlite.ExecutionResult) (int64, error) {
	return 1, nil
}

func TestRunProgressIsMonotonic(t *testing.T) {
	const total = 8
	store := &recordingStore{}
	for i := 0; i < total; i++ {
		contrato := fmt.Sprintf("46%08d", i+1)
		store.contracts = append(store.contracts, sqlite.Contract{
			ID:       int64(i + 1),
			Name:     contrato,
			Path:     contrato,
			Contrato: &contrato,
		})
	}

	processor := NewExhaustiveProcessor(store, providers.NewLocalProvider())
	if _, err := processor.Run(context.Background(), "Qual a vigencia?"); err != nil {
		t.Fatalf("run: %v", err)
	}

	// One publication per contract plus the finalization write.
	if len(store.progress) != total+1 {
		t.Fatalf("expected %d progress writes, got %d: %v", total+1, len(store.progress), store.progress)
	}
	for i := 1; i < len(store.progress); i++ {
		if store.progress[i] < store.progress[i-1] {
			t.Fatalf("progress regressed at index %d: %v", i, store.progress)
		}
	}
	for i := 0; i < total-1; i++ {
		if store.progress[i] >= 100 {
			t.Fatalf("progress hit 100 before completion at index %d: %v", i, store.progress)
		}
	}
	if store.progress[len(store.progress)-1] != 100 {
		t.Fatalf("expected final progress 100, got %v", store.progress)
	}
}

type staticProvider struct {
	resposta string
}

func (s staticProvider) Chat(context.Context, []providers.Message) (string, error) {
	return s.resposta, nil
}

func (s staticProvider) Embed(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (s staticProvider) Name() string { return "static" }

func TestRunBlankResponses(t *testing.T) {
	cases := []struct {
		name     string
		resposta string
		want     *string
	}{
		{name: "whitespace only", resposta: "   \n  ", want: strPtr("")},
		{name: "empty", resposta: "", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t)
			seedContracts(t, store, "4600000001")
			processor := NewExhaustiveProcessor(store, staticProvider{resposta: tc.resposta})
			ctx := context.Background()

			execIDs, err := processor.Run(ctx, "Qual a vigencia?")
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			results, err := store.ResultsForExecution(ctx, execIDs[0])
			if err != nil {
				t.Fatalf("list results: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			simples := results[0].RespostaSimples
			if tc.want == nil {
				if simples != nil {
					t.Fatalf("expected nil resposta_simples, got %q", *simples)
				}
				return
			}
			if simples == nil || *simples != *tc.want {
				t.Fatalf("expected resposta_simples %q, got %v", *tc.want, simples)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestRunModelFailureMarksExecutionFailed(t *testing.T) {
	store := newTestStore(t)
	seedContracts(t, store, "4600000001", "4600000002")
	processor := NewExhaustiveProcessor(store, failingProvider{}, WithMaxConcurrent(1))
	ctx := context.Background()

	execIDs, err := processor.Run(ctx, "Qual a vigencia?")
	if err == nil {
		t.Fatal("expected model failure to propagate")
	}
	if len(execIDs) != 1 {
		t.Fatalf("expected the aborted execution id, got %d", len(execIDs))
	}
	execution, gerr := store.GetExecution(ctx, execIDs[0])
	if gerr != nil {
		t.Fatalf("get execution: %v", gerr)
	}
	if execution.Status != StatusFailed {
		t.Fatalf("expected failed status, got %q", execution.Status)
	}
	if execution.EndTime == nil {
		t.Fatal("expected end_time on failed execution")
	}
}
