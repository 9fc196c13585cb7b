package feed

import (
	"errors"

	"github.com/menureel/menureel/internal/visibility"
)

const (
	MessageViewport = "viewport"
	MessageInteract = "interact"
	MessageTap      = "tap"
	MessageStatus   = "status"
)

const (
	StatusLoaded = "loaded"
	StatusError  = "error"
)

// Message is an input from the render surface or a row's video player.
type Message struct {
	Type    string             `json:"type"`
	Events  []visibility.Event `json:"events,omitempty"`
	Index   int                `json:"index"`
	Status  string             `json:"status,omitempty"`
	Error   string             `json:"error,omitempty"`
	Expired bool               `json:"expired,omitempty"`
}

var ErrUnknownMessage = errors.New("unknown feed message type")
