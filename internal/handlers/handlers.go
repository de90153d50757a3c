// Package handlers - REST API Handlers
// HTTP surface of the website generation service
package handlers

import (
	"go.uber.org/zap"

	"sitesmith/internal/keys"
	"sitesmith/internal/pipeline"
	"sitesmith/internal/ws"
)

// Handler contains all the dependencies for API handlers
type Handler struct {
	Pipeline *pipeline.Pipeline
	Selector *keys.Selector
	Hub      *ws.Hub

	log *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(p *pipeline.Pipeline, selector *keys.Selector, hub *ws.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Pipeline: p,
		Selector: selector,
		Hub:      hub,
		log:      log,
	}
}

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}
