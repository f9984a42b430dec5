// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warehousekit/contractd/internal/org"
)

type createBuildingRequest struct {
	ID             uuid.UUID `json:"id"`
	Country        string    `json:"country"`
	Region         string    `json:"region"`
	City           string    `json:"city"`
	Street         string    `json:"street"`
	BuildingNumber string    `json:"building_number"`
	TotalFloors    int       `json:"total_floors"`
}

type buildingResponse struct {
	ID             uuid.UUID `json:"id"`
	Country        string    `json:"country"`
	Region         string    `json:"region"`
	City           string    `json:"city"`
	Street         string    `json:"street"`
	BuildingNumber string    `json:"building_number"`
	TotalFloors    int       `json:"total_floors"`
}

func toBuildingResponse(b *org.Building) buildingResponse {
	addr := b.Address()
	return buildingResponse{
		ID:             b.ID(),
		Country:        addr.Country(),
		Region:         addr.Region(),
		City:           addr.City(),
		Street:         addr.Street(),
		BuildingNumber: addr.BuildingNumber(),
		TotalFloors:    b.TotalFloors(),
	}
}

func (s *Server) createBuilding(w http.ResponseWriter, r *http.Request) {
	var req createBuildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	b, err := s.org.CreateBuilding(r.Context(), req.ID,
		req.Country, req.Region, req.City, req.Street, req.BuildingNumber, req.TotalFloors)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBuildingResponse(b))
}

func (s *Server) getBuilding(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "buildingId"))
	if err != nil {
		writeBadRequest(w, "buildingId must be a UUID")
		return
	}
	b, err := s.org.GetBuilding(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBuildingResponse(b))
}

type createFacilityRequest struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BuildingID uuid.UUID `json:"building_id"`
	Floor      int       `json:"floor"`
}

type sectionResponse struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Area float64   `json:"area"`
}

type facilityResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	BuildingID uuid.UUID         `json:"building_id"`
	Floor      int               `json:"floor"`
	Sections   []sectionResponse `json:"sections"`
}

func toFacilityResponse(f *org.StorageFacility) facilityResponse {
	sections := make([]sectionResponse, 0, len(f.Sections()))
	for _, sec := range f.Sections() {
		sections = append(sections, sectionResponse{ID: sec.ID(), Code: sec.Code(), Area: sec.Area()})
	}
	return facilityResponse{
		ID:         f.ID(),
		Name:       f.Name(),
		BuildingID: f.Building(),
		Floor:      f.Floor(),
		Sections:   sections,
	}
}

func (s *Server) createFacility(w http.ResponseWriter, r *http.Request) {
	var req createFacilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f, err := s.org.CreateFacility(r.Context(), req.ID, req.Name, req.BuildingID, req.Floor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFacilityResponse(f))
}

func (s *Server) getFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	f, err := s.org.GetFacility(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFacilityResponse(f))
}

type sectionRequest struct {
	Code string  `json:"code"`
	Area float64 `json:"area"`
}

func (s *Server) addSection(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if err := s.org.AddSection(r.Context(), id, req.Code, req.Area); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) resizeSection(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	var req struct {
		Area float64 `json:"area"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if err := s.org.ResizeSection(r.Context(), id, code, req.Area); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resized"})
}

func facilityID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "facilityId"))
	if err != nil {
		writeBadRequest(w, "facilityId must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
