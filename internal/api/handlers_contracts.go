// SPDX-License-Identifier: MIT

// Package api exposes the HTTP surface of the contract service. Command
// endpoints are asynchronous: the handler validates the payload, publishes
// the command on the bus and answers 202; the consumers apply it.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/service"
)

// ContractReader serves the synchronous read endpoints.
type ContractReader interface {
	Get(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
}

// SagaReader exposes the persisted orchestration snapshot.
type SagaReader interface {
	Get(ctx context.Context, correlationID uuid.UUID) (*lifecycle.SagaState, error)
}

// Publisher is the bus side the handlers publish commands to.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg bus.Message) error
}

// Server bundles the HTTP handlers and their dependencies.
type Server struct {
	pub       Publisher
	contracts ContractReader
	sagas     SagaReader
	org       *service.Org
	logger    zerolog.Logger
}

func NewServer(pub Publisher, contracts ContractReader, sagas SagaReader, orgSvc *service.Org) *Server {
	return &Server{
		pub:       pub,
		contracts: contracts,
		sagas:     sagas,
		org:       orgSvc,
		logger:    log.WithComponent("api"),
	}
}

type createContractRequest struct {
	WarehouseID  uuid.UUID `json:"warehouse_id"`
	ManagerID    uuid.UUID `json:"manager_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

type lineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type rescheduleRequest struct {
	NewDate time.Time `json:"new_date"`
}

func (s *Server) createContract(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	var req createContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	s.accept(w, r, command.CreateContract{
		CorrelationID: id,
		ContractID:    id,
		WarehouseID:   req.WarehouseID,
		ManagerID:     req.ManagerID,
		ScheduledFor:  req.ScheduledFor.UTC(),
	})
}

func (s *Server) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	s.accept(w, r, command.AddLine{
		CorrelationID: id,
		ContractID:    id,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
	})
}

func (s *Server) decreaseLine(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	s.accept(w, r, command.DecreaseLine{
		CorrelationID: id,
		ContractID:    id,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
	})
}

func (s *Server) reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	s.accept(w, r, command.Reschedule{
		CorrelationID: id,
		ContractID:    id,
		NewDate:       req.NewDate.UTC(),
	})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	if id, ok := contractID(w, r); ok {
		s.accept(w, r, command.Start{CorrelationID: id, ContractID: id})
	}
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	if id, ok := contractID(w, r); ok {
		s.accept(w, r, command.Complete{CorrelationID: id, ContractID: id})
	}
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	if id, ok := contractID(w, r); ok {
		s.accept(w, r, command.Cancel{CorrelationID: id, ContractID: id})
	}
}

// validatable lets accept reject malformed commands before they enter the
// bus; the consumers re-validate anyway.
type validatable interface {
	Validate() error
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request, cmd validatable) {
	if err := cmd.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.pub.Publish(r.Context(), bus.TopicCommands, cmd); err != nil {
		s.logger.Error().Err(err).Msg("command publish failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "command transport unavailable"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type contractLineResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type contractResponse struct {
	ID           uuid.UUID              `json:"id"`
	WarehouseID  uuid.UUID              `json:"warehouse_id"`
	ManagerID    uuid.UUID              `json:"manager_id"`
	CreatedAt    time.Time              `json:"created_at"`
	ScheduledFor time.Time              `json:"scheduled_for"`
	Status       string                 `json:"status"`
	Lines        []contractLineResponse `json:"lines"`
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	c, err := s.contracts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lines := make([]contractLineResponse, 0, len(c.Lines()))
	for _, l := range c.Lines() {
		lines = append(lines, contractLineResponse{
			ID:        l.ID().UUID(),
			ProductID: l.Product().UUID(),
			Quantity:  l.Quantity().Int(),
		})
	}
	writeJSON(w, http.StatusOK, contractResponse{
		ID:           c.ID().UUID(),
		WarehouseID:  c.Warehouse().UUID(),
		ManagerID:    c.Manager().UUID(),
		CreatedAt:    c.CreatedAt(),
		ScheduledFor: c.ScheduledFor().Time(),
		Status:       c.Status().String(),
		Lines:        lines,
	})
}

func (s *Server) getContractState(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}
	rec, err := s.sagas.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func contractID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "contractId"))
	if err != nil || id == uuid.Nil {
		writeBadRequest(w, "contractId must be a non-nil UUID")
		return uuid.Nil, false
	}
	return id, true
}
