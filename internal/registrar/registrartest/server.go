// Package registrartest provides an in-process fake of the registrar HTTP API.
package registrartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"namecart/internal/registrar"
)

// Call names accepted by FailNext and Calls.
const (
	CallGetDomain    = "get_domain"
	CallRegister     = "register"
	CallTransfer     = "transfer"
	CallReturn       = "return"
	CallGetOperation = "get_operation"
)

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	domains    map[string]registrar.DomainRecord
	operations map[string]registrar.Operation
	calls      map[string]int
	failures   map[string][]int
	nextID     int
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		domains:    make(map[string]registrar.DomainRecord),
		operations: make(map[string]registrar.Operation),
		calls:      make(map[string]int),
		failures:   make(map[string][]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.route))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) SetDomain(rec registrar.DomainRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains[rec.Name] = rec
}

func (s *Server) Domain(name string) (registrar.DomainRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.domains[name]
	return rec, ok
}

func (s *Server) SetOperation(op registrar.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations[op.ID] = op
}

// FailNext makes the next len(statuses) calls of the given kind answer with
// those HTTP statuses, in order.
func (s *Server) FailNext(call string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[call] = append(s.failures[call], statuses...)
}

func (s *Server) Calls(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[call]
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "domains":
		s.handle(w, CallGetDomain, func() (int, any) { return s.getDomain(parts[1]) })
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "domains":
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.handle(w, CallRegister, func() (int, any) { return s.register(body.Name) })
	case r.Method == http.MethodPatch && len(parts) == 2 && parts[0] == "domains":
		var body struct {
			Owner registrar.Owner `json:"owner"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.handle(w, CallTransfer, func() (int, any) { return s.transfer(parts[1], body.Owner) })
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "domains" && parts[2] == "return":
		s.handle(w, CallReturn, func() (int, any) { return s.returnDomain(parts[1]) })
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "operations":
		s.handle(w, CallGetOperation, func() (int, any) { return s.getOperation(parts[1]) })
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handle(w http.ResponseWriter, call string, fn func() (int, any)) {
	s.mu.Lock()
	s.calls[call]++
	if queued := s.failures[call]; len(queued) > 0 {
		status := queued[0]
		s.failures[call] = queued[1:]
		s.mu.Unlock()
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	status, body := fn()
	s.mu.Unlock()
	writeJSON(w, status, body)
}

func (s *Server) newOperation(domain string) registrar.Operation {
	s.nextID++
	op := registrar.Operation{ID: fmt.Sprintf("op-%d", s.nextID), Status: registrar.StatusPending, Domain: domain}
	s.operations[op.ID] = op
	return op
}

func (s *Server) getDomain(name string) (int, any) {
	rec, ok := s.domains[name]
	if !ok {
		return http.StatusNotFound, map[string]string{"error": "domain not found"}
	}
	return http.StatusOK, rec
}

func (s *Server) register(name string) (int, any) {
	if rec, ok := s.domains[name]; ok && rec.Owner.Type != registrar.OwnerNone && rec.Owner.Type != "" {
		return http.StatusConflict, map[string]string{"error": "domain is taken"}
	}
	op := s.newOperation(name)
	s.domains[name] = registrar.DomainRecord{Name: name, Status: registrar.StatusPending, Owner: registrar.Owner{Type: registrar.OwnerMe}}
	return http.StatusCreated, map[string]any{"operation": op}
}

func (s *Server) transfer(name string, owner registrar.Owner) (int, any) {
	rec, ok := s.domains[name]
	if !ok {
		return http.StatusNotFound, map[string]string{"error": "domain not found"}
	}
	if rec.Owner.Type != registrar.OwnerMe {
		return http.StatusConflict, map[string]string{"error": "domain not owned by account"}
	}
	op := s.newOperation(name)
	rec.Owner = owner
	s.domains[name] = rec
	return http.StatusOK, map[string]any{"operation": op}
}

func (s *Server) returnDomain(name string) (int, any) {
	rec, ok := s.domains[name]
	if !ok {
		return http.StatusNotFound, map[string]string{"error": "domain not found"}
	}
	if rec.Owner.Type != registrar.OwnerMe {
		return http.StatusConflict, map[string]string{"error": "domain not owned by account"}
	}
	op := s.newOperation(name)
	s.domains[name] = registrar.DomainRecord{Name: name, Status: registrar.StatusAvailable, Owner: registrar.Owner{Type: registrar.OwnerNone}}
	return http.StatusOK, map[string]any{"operation": op}
}

func (s *Server) getOperation(id string) (int, any) {
	op, ok := s.operations[id]
	if !ok {
		return http.StatusNotFound, map[string]string{"error": "operation not found"}
	}
	return http.StatusOK, op
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
