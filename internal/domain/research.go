package domain

import (
	"errors"
	"time"
)

// ContentType classifies the outcome of an extraction.
type ContentType string

const (
	ContentWebpage ContentType = "webpage"
	ContentError   ContentType = "error"
)

// ProcessingStatus enumerates the lifecycle of a research submission.
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusCompleted ProcessingStatus = "completed"
	// StatusError is part of the stored enum but the pipeline never writes it:
	// analysis failures are absorbed into fallback content.
	StatusError ProcessingStatus = "error"
)

const (
	// PendingTitle is stored until extraction provides a real title.
	PendingTitle = "Processing..."
	// UntitledTitle is used when the fetched page carries no title markers.
	UntitledTitle = "Untitled"
	// ExtractionErrorTitle marks a failed fetch.
	ExtractionErrorTitle = "Error extracting content"
)

// Extraction is the bounded view of a fetched URL.
type Extraction struct {
	Title       string
	Content     string
	ContentType ContentType
}

// Failed reports whether the fetch behind this extraction failed.
func (e Extraction) Failed() bool {
	return e.ContentType == ContentError
}

// Analysis is the structured summary produced by the LLM (or its fallback).
type Analysis struct {
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights"`
	ActionableItems []string `json:"actionable_items"`
}

// ResearchResult is one persisted submission.
type ResearchResult struct {
	ID              int64            `json:"id"`
	URL             string           `json:"url"`
	Title           string           `json:"title"`
	ContentType     ContentType      `json:"content_type"`
	Summary         string           `json:"summary"`
	KeyInsights     []string         `json:"key_insights"`
	ActionableItems []string         `json:"actionable_items"`
	Status          ProcessingStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	ProcessedAt     *time.Time       `json:"processed_at"`
}

// UserSettings is the single settings record of the deployment.
type UserSettings struct {
	APIKey          string
	CalendarEnabled bool
}

// HasAPIKey reports whether a credential is configured.
func (s UserSettings) HasAPIKey() bool {
	return s.APIKey != ""
}

// ErrResultNotFound is returned by stores when no result has the requested id.
var ErrResultNotFound = errors.New("research result not found")
