package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NarrativeData is the opaque templated payload handed to the narrative
// system; consumers must not interpret fields beyond display.
type NarrativeData struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Magnitude       float64  `json:"magnitude"`
	Timeframe       string   `json:"timeframe"`
	AffectedSystems []string `json:"affected_systems"`
}

// NarrativeInput is a weighted, emotionally-scored event emitted when a
// fiscal effect is significant enough to narrate. Each row is consumed
// (marked processed) exactly once by the external narrative system.
type NarrativeInput struct {
	bun.BaseModel `bun:"table:narrative_generation_inputs,alias:ngi"`

	ID               string        `bun:"id,pk"`
	CivilizationID   string        `bun:"civilization_id,notnull"`
	InputType        string        `bun:"input_type,notnull"`
	NarrativeWeight  float64       `bun:"narrative_weight,notnull,type:numeric(6,3)"`
	NarrativeData    NarrativeData `bun:"narrative_data,type:jsonb"`
	EmotionalValence float64       `bun:"emotional_valence,notnull,type:numeric(4,2)"`
	Magnitude        float64       `bun:"magnitude,notnull,type:numeric(10,4)"`
	CreatedAt        time.Time     `bun:"created_at,notnull,default:current_timestamp"`
	ProcessedAt      *time.Time    `bun:"processed_at"`
}
