package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/amishk599/shortlist/internal/match"
	"github.com/amishk599/shortlist/internal/model"
)

// AddToPipelineRequest is the body of POST /positions/{id}/pipeline.
type AddToPipelineRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Stage       string `json:"stage" validate:"omitempty,max=32"`
}

type positionView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Client   string   `json:"client,omitempty"`
	Skills   []string `json:"skills"`
	Location string   `json:"location,omitempty"`
	Status   string   `json:"status"`
}

type breakdownView struct {
	Title         float64  `json:"title"`
	Skills        float64  `json:"skills"`
	Location      float64  `json:"location"`
	Seniority     float64  `json:"seniority"`
	MatchedSkills []string `json:"matched_skills"`
}

type matchView struct {
	CandidateID string        `json:"candidate_id"`
	Name        string        `json:"name"`
	Role        string        `json:"role,omitempty"`
	Location    string        `json:"location,omitempty"`
	Score       int           `json:"score"`
	Breakdown   breakdownView `json:"breakdown"`
	Explanation string        `json:"explanation"`
}

type matchesResponse struct {
	PositionID string      `json:"position_id"`
	Title      string      `json:"title"`
	PoolSize   int         `json:"pool_size"`
	Excluded   int         `json:"excluded"`
	Matches    []matchView `json:"matches"`
}

type submissionView struct {
	ID          string    `json:"id"`
	PositionID  string    `json:"position_id"`
	CandidateID string    `json:"candidate_id"`
	Stage       string    `json:"stage"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSubmissionView(sub model.Submission) submissionView {
	return submissionView{
		ID:          sub.ID,
		PositionID:  sub.PositionID,
		CandidateID: sub.CandidateID,
		Stage:       sub.Stage,
		CreatedAt:   sub.CreatedAt,
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.catalog.ListPositions(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	out := make([]positionView, 0, len(recs))
	for _, p := range recs {
		skills := p.Skills
		if skills == nil {
			skills = []string{}
		}
		out = append(out, positionView{
			ID:       p.ID,
			Title:    p.Title,
			Client:   p.Client,
			Skills:   skills,
			Location: p.Location,
			Status:   p.Status,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"positions": out})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")
	if positionID == "" {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "required"})
		return
	}

	res, err := s.matcher.Matches(r.Context(), positionID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	views := make([]matchView, 0, len(res.Matches))
	for _, m := range res.Matches {
		c := res.Candidates[m.CandidateID]
		matched := m.Breakdown.MatchedSkills
		if matched == nil {
			matched = []string{}
		}
		views = append(views, matchView{
			CandidateID: m.CandidateID,
			Name:        c.Name,
			Role:        c.Role,
			Location:    c.Location,
			Score:       m.Score,
			Breakdown: breakdownView{
				Title:         m.Breakdown.Title,
				Skills:        m.Breakdown.Skills,
				Location:      m.Breakdown.Location,
				Seniority:     m.Breakdown.Seniority,
				MatchedSkills: matched,
			},
			Explanation: match.Explain(m),
		})
	}

	s.jsonResponse(w, http.StatusOK, matchesResponse{
		PositionID: res.Position.ID,
		Title:      res.Position.Title,
		PoolSize:   res.PoolSize,
		Excluded:   res.Excluded,
		Matches:    views,
	})
}

func (s *Server) handleListPipeline(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")

	p, err := s.catalog.GetPosition(r.Context(), positionID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if p == nil {
		s.errorResponse(w, model.ErrPositionNotFound)
		return
	}

	subs, err := s.catalog.ListSubmissions(r.Context(), positionID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	out := make([]submissionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubmissionView(sub))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"submissions": out})
}

func (s *Server) handleAddToPipeline(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")

	var req AddToPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, extractValidationErrors(err))
		return
	}

	sub, err := s.matcher.AddToPipeline(r.Context(), positionID, req.CandidateID, req.Stage)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, toSubmissionView(*sub))
}
