// File path: internal/employees/resolver.go

// Package employees resolves contract-manager keys against the corporate
// directory, with a local fallback table for offline operation.
package employees

import (
	"context"

	"github.com/vbertoni/contratos/internal/common"
)

// Unknown is the sentinel value reported for every field of an unresolved
// employee.
const Unknown = "DESCONHECIDO"

// Employee is a resolved directory record. Chave always echoes the queried
// key, whatever source satisfied the lookup.
type Employee struct {
	Chave   string `json:"chave"`
	Nome    string `json:"nome"`
	Email   string `json:"email"`
	Lotacao string `json:"lotacao"`
	Cargo   string `json:"cargo"`
}

// isZero reports whether the record carries no data. Directories answer some
// keys with an empty record instead of an error; that counts as unresolved.
func (e *Employee) isZero() bool {
	return e.Nome == "" && e.Email == "" && e.Lotacao == "" && e.Cargo == ""
}

// Directory is the external lookup capability. Lookup may fail or return nil
// when the key is unknown; the resolver absorbs both.
type Directory interface {
	Lookup(ctx context.Context, chave string) (*Employee, error)
}

// source is one step of the resolution chain. A nil result falls through to
// the next source.
type source func(ctx context.Context, chave string) *Employee

// Resolver resolves employee keys through an ordered chain of sources:
// external directory, built-in table, unknown sentinel. Resolve never fails.
type Resolver struct {
	sources []source
}

// NewResolver builds a resolver. dir may be nil when no external directory
// is configured.
func NewResolver(dir Directory) *Resolver {
	r := &Resolver{}
	if dir != nil {
		r.sources = append(r.sources, func(ctx context.Context, chave string) *Employee {
			record, err := dir.Lookup(ctx, chave)
			if err != nil {
				common.Logger().Debug("employees: directory lookup failed", "chave", chave, "error", err)
				return nil
			}
			return record
		})
	}
	r.sources = append(r.sources, lookupStatic)
	return r
}

// Resolve returns the employee record for the given key, falling back to the
// built-in table and finally to the DESCONHECIDO sentinel. Empty records fall
// through the chain the same as missing ones.
func (r *Resolver) Resolve(ctx context.Context, chave string) Employee {
	for _, src := range r.sources {
		if record := src(ctx, chave); record != nil && !record.isZero() {
			result := *record
			result.Chave = chave
			return result
		}
	}
	return Employee{
		Chave:   chave,
		Nome:    Unknown,
		Email:   Unknown,
		Lotacao: Unknown,
		Cargo:   Unknown,
	}
}

// staticTable mirrors the directory extract shipped with the application for
// environments without access to the lookup service.
var staticTable = map[string]Employee{
	"CSLA": {
		Nome:    "CARLOS SANTANA LIMA ALMEIDA",
		Email:   "carlos.almeida@petrobras.com.br",
		Lotacao: "TI/DEVOPS",
		Cargo:   "ANALISTA DE SISTEMAS PLENO",
	},
	"EVIJ": {
		Nome:    "EDUARDO VIEIRA JUNQUEIRA",
		Email:   "eduardo.junqueira@petrobras.com.br",
		Lotacao: "AUDITORIA/ADG/ACI",
		Cargo:   "AUDITOR SÊNIOR",
	},
	"AB9V": {
		Nome:    "ANA BEATRIZ VASCONCELOS",
		Email:   "ana.vasconcelos@petrobras.com.br",
		Lotacao: "GEOLOGIA/EXPLORAÇÃO",
		Cargo:   "ENGENHEIRA DE PETRÓLEO JUNIOR",
	},
	"YUD1": {
		Nome:    "YURI DUARTE DOMINGUES",
		Email:   "yuri.domingues@petrobras.com.br",
		Lotacao: "SUPRIMENTO/LOGÍSTICA",
		Cargo:   "ESPECIALISTA EM LOGÍSTICA",
	},
}

func lookupStatic(_ context.Context, chave string) *Employee {
	record, ok := staticTable[chave]
	if !ok {
		return nil
	}
	return &record
}
