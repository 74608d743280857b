// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vbertoni/contratos/internal/chat"
	"github.com/vbertoni/contratos/internal/employees"
	"github.com/vbertoni/contratos/internal/ingest"
	"github.com/vbertoni/contratos/internal/llm/providers"
	"github.com/vbertoni/contratos/internal/processing"
	"github.com/vbertoni/contratos/internal/sqlite"
)

const testExport = `"contrato,inicioPrazo,fimPrazo,empresa,icj,valor,moeda,taxa,gerente,modalidade,textoModalidade,reajuste,fornecedor,nomeFornecedor,tipoContrato,objeto,item,descricao,numeroExterno,descricao2";
"4600000001,20230101,20241231,EMPRESA,ICJ-1,100.5,BRL,1.0,CSLA,BID,Licitacao,IPCA,700,FORNECEDOR,SERVICO,Objeto um,10,Linha um,EXT-1,";
"4600000002,20230601,20250531,EMPRESA,ICJ-2,250.0,BRL,1.0,EVIJ,DL,Dispensa,,701,OUTRO,SERVICO,Objeto dois,10,Linha dois,EXT-2,";
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "contratos.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	csvPath := filepath.Join(t.TempDir(), "contratos.csv")
	if err := os.WriteFile(csvPath, []byte(testExport), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	provider := providers.NewLocalProvider()
	resolver := employees.NewResolver(nil)
	ingestor := ingest.NewStructuredIngestor(store, resolver)
	processor := processing.NewExhaustiveProcessor(store, provider)
	chatbot := chat.NewChatbot(provider, nil)

	cfg := DefaultConfig()
	cfg.CSVPath = csvPath
	return NewServer(store, provider, ingestor, nil, processor, chatbot, cfg)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPromptEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/prompts", map[string]string{
		"nome":  "vigencia",
		"texto": "Qual a vigencia do contrato?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create prompt: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &created)
	if created.ID == 0 {
		t.Fatal("expected prompt id")
	}

	rec = doJSON(t, server, http.MethodPost, "/api/prompts", map[string]string{"nome": "incompleto"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing texto, got %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/prompts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list prompts: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &listed)
	if listed.Count != 1 {
		t.Fatalf("expected 1 prompt, got %d", listed.Count)
	}

	rec = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/prompts/%d", created.ID), map[string]string{
		"texto": "Qual o prazo de vigencia?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update prompt: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get prompt: expected 200, got %d", rec.Code)
	}
	var prompt sqlite.Prompt
	decodeBody(t, rec, &prompt)
	if prompt.Texto != "Qual o prazo de vigencia?" {
		t.Fatalf("texto not updated: %q", prompt.Texto)
	}
	if prompt.Nome != "vigencia" {
		t.Fatalf("partial update should keep nome: %q", prompt.Nome)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/prompts/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete prompt: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestIngestAndRunPipeline(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/ingest-structured", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ingested struct {
		ExecutionID int64   `json:"execution_id"`
		Progress    float64 `json:"progress"`
	}
	decodeBody(t, rec, &ingested)
	if ingested.ExecutionID == 0 || ingested.Progress != 100 {
		t.Fatalf("unexpected ingest response: %+v", ingested)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/contracts", nil)
	var contracts struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &contracts)
	if contracts.Count != 2 {
		t.Fatalf("expected 2 contracts, got %d", contracts.Count)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/contracts/4600000001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get contract: expected 200, got %d", rec.Code)
	}
	var detail struct {
		Relatorio string `json:"relatorio"`
	}
	decodeBody(t, rec, &detail)
	if !strings.Contains(detail.Relatorio, "contrato: 4600000001") {
		t.Fatalf("relatorio missing identifier:\n%s", detail.Relatorio)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/contracts/4609999999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing contract, got %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/prompts/run", map[string]string{
		"prompt": "Qual a vigencia do contrato?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("run prompts: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var run struct {
		ExecutionIDs []int64 `json:"execution_ids"`
	}
	decodeBody(t, rec, &run)
	if len(run.ExecutionIDs) != 1 {
		t.Fatalf("expected one execution, got %d", len(run.ExecutionIDs))
	}

	execID := run.ExecutionIDs[0]
	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/executions/%d", execID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get execution: expected 200, got %d", rec.Code)
	}
	var execution sqlite.Execution
	decodeBody(t, rec, &execution)
	if execution.Status != processing.StatusSuccess || execution.Progress != 100 {
		t.Fatalf("unexpected execution: %+v", execution)
	}

	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/executions/%d/results", execID), nil)
	var results struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &results)
	if results.Count != 2 {
		t.Fatalf("expected one result per contract, got %d", results.Count)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/executions?status=success", nil)
	var executions struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &executions)
	if executions.Count != 2 {
		t.Fatalf("expected ingest and prompt executions, got %d", executions.Count)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/executions?start=not-a-time", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad time filter, got %d", rec.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/chat", map[string]string{
		"question": "Quais contratos vencem este ano?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answer chat.Answer
	decodeBody(t, rec, &answer)
	if !strings.HasPrefix(answer.Resposta, "[local-stub] ") {
		t.Fatalf("unexpected answer: %q", answer.Resposta)
	}

	rec = doJSON(t, server, http.MethodPost, "/api/chat", map[string]string{"question": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question, got %d", rec.Code)
	}
}

func TestLogsEndpoint(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server, http.MethodGet, "/api/logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: expected 200, got %d", rec.Code)
	}
	var logs struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &logs)
	if logs.Count == 0 {
		t.Fatal("expected captured log entries")
	}
}
