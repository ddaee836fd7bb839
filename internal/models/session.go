// Package models defines the report session record and its request/response shapes.
package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffRow is one personnel line: a category/grade pair with headcounts by sex.
type StaffRow struct {
	Category string `json:"category"`
	Grade    string `json:"grade"`
	Male     int    `json:"male"`
	Female   int    `json:"female"`
}

// BudgetRow is one forecast/achievement line in any budget row-group.
type BudgetRow struct {
	Label       string  `json:"label"`
	Forecast    float64 `json:"forecast"`
	Achievement float64 `json:"achievement"`
}

// BudgetData holds the four budget row-groups.
type BudgetData struct {
	Production            []BudgetRow `json:"production,omitempty"`
	Charges               []BudgetRow `json:"charges,omitempty"`
	TreasuryReceipts      []BudgetRow `json:"treasuryReceipts,omitempty"`
	TreasuryDisbursements []BudgetRow `json:"treasuryDisbursements,omitempty"`
}

// Volume holds the measured quantities of one operating-data row.
type Volume struct {
	Kgs   float64 `json:"kgs"`
	M3    float64 `json:"m3"`
	Litre float64 `json:"litre"`
}

// Value holds the monetary values of one operating-data row.
type Value struct {
	CIF       float64 `json:"cif"`
	FOB       float64 `json:"fob"`
	Marchande float64 `json:"marchande"`
}

// OperatingRow is one import/export operating-data line.
type OperatingRow struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Volume      Volume `json:"volume"`
	Value       Value  `json:"value"`
}

// CountRow is a named counter (failures, metrology, technical control).
type CountRow struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// LabAnalysisRow is one laboratory compliance line.
type LabAnalysisRow struct {
	Category     string  `json:"category"`
	Product      string  `json:"product"`
	Received     float64 `json:"received"`
	Analyzed     float64 `json:"analyzed"`
	NonCompliant float64 `json:"nonCompliant"`
}

// ExploitationData groups the operational sub-domains of a session payload.
type ExploitationData struct {
	OperatingData    []OperatingRow   `json:"operatingData,omitempty"`
	Failures         []CountRow       `json:"failures,omitempty"`
	LabAnalysis      []LabAnalysisRow `json:"labAnalysis,omitempty"`
	Metrology        []CountRow       `json:"metrology,omitempty"`
	TechnicalControl []CountRow       `json:"technicalControl,omitempty"`
}

// SessionData is the substantive payload of a session. Every field is
// user-editable; any change to it invalidates the derived embedding fields.
type SessionData struct {
	Staff           []StaffRow        `json:"staff,omitempty"`
	ManagementCount int               `json:"managementCount,omitempty"`
	SalaryMassCDF   float64           `json:"salaryMassCDF,omitempty"`
	Budget          *BudgetData       `json:"budget,omitempty"`
	Exploitation    *ExploitationData `json:"exploitation,omitempty"`
}

// Session is a saved report session. Embedding and EmbeddingText are derived
// caches owned by the embedding pipeline: Embedding was produced from exactly
// the string in EmbeddingText, which is itself a pure function of the header
// fields and Data. They are never accepted from callers.
type Session struct {
	ID          uuid.UUID    `json:"id"`
	UserID      string       `json:"userId"`
	SessionName string       `json:"sessionName"`
	Description *string      `json:"description,omitempty"`
	StartDate   *string      `json:"startDate,omitempty"` // ISO date (YYYY-MM-DD)
	EndDate     *string      `json:"endDate,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Data        *SessionData `json:"data,omitempty"`

	Embedding      []float32 `json:"-"`
	EmbeddingText  *string   `json:"-"`
	AIAnalysis     *string   `json:"aiAnalysis,omitempty"`
	AIAnalysisLang *string   `json:"aiAnalysisLang,omitempty"`
}

// CreateSessionRequest is the payload for creating a session.
type CreateSessionRequest struct {
	SessionName string       `json:"sessionName" validate:"required,min=1,max=255"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate   *string      `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string      `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Data        *SessionData `json:"data,omitempty"`
}

// UpdateSessionRequest is the payload for updating a session. Nil fields are
// left untouched (merge semantics). Derived embedding fields cannot be set here.
type UpdateSessionRequest struct {
	SessionName *string      `json:"sessionName,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate   *string      `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string      `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Data        *SessionData `json:"data,omitempty"`
}

// SessionListItem is the list-view projection of a session (no payload).
type SessionListItem struct {
	ID          uuid.UUID `json:"id"`
	SessionName string    `json:"sessionName"`
	Description *string   `json:"description,omitempty"`
	StartDate   *string   `json:"startDate,omitempty"`
	EndDate     *string   `json:"endDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionMatch is one nearest-neighbor retrieval hit: the session's identity,
// its cached serialized text (may be empty for records embedded before the
// cache field existed), and the cosine similarity score.
type SessionMatch struct {
	SessionID     uuid.UUID
	SessionName   string
	EmbeddingText string
	Score         float64
	Session       *Session
}

// LocalizedText is a closed bilingual payload. Exactly two locales are
// contractually required by the chat prompt design.
type LocalizedText struct {
	EN string `json:"en"`
	FR string `json:"fr"`
}

// ChatSource identifies one session a chat answer was grounded in.
type ChatSource struct {
	SessionID   string `json:"sessionId"`
	SessionName string `json:"sessionName"`
}

// ChatPayload is the structured answer the model is instructed to return.
type ChatPayload struct {
	Answer   LocalizedText `json:"answer"`
	Question LocalizedText `json:"question"`
}

// ChatMessage is one prior conversation turn supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the payload for a retrieval-augmented chat turn.
type ChatRequest struct {
	Question string        `json:"question" validate:"required"`
	History  []ChatMessage `json:"history,omitempty" validate:"omitempty,dive"`
	Language string        `json:"language,omitempty"`
}

// ChatResponse is the structured chat answer plus the sessions it was grounded in.
type ChatResponse struct {
	Answer  ChatPayload  `json:"answer"`
	Sources []ChatSource `json:"sources"`
}

// AnalyzeRequest is the payload for generating a report analysis. When
// SessionID is set the result is persisted on that session.
type AnalyzeRequest struct {
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	Data      any        `json:"data" validate:"required"`
	Language  string     `json:"language,omitempty"`
}

// AnalyzeResponse carries the generated analysis text.
type AnalyzeResponse struct {
	Text string `json:"text"`
}

// BackfillStats summarizes one backfill sweep.
type BackfillStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}
