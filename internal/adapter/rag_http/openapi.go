package rag_http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.json
var openapiDocument []byte

var errChatSchemaMissing = errors.New("chat request schema not found")

// Document returns the embedded OpenAPI document.
func Document() []byte {
	return openapiDocument
}

// requestValidator checks request bodies against the embedded document.
type requestValidator struct {
	chat *openapi3.Schema
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	item := doc.Paths.Find("/chat")
	if item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, errChatSchemaMissing
	}
	media := item.Post.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, errChatSchemaMissing
	}
	return &requestValidator{chat: media.Schema.Value}, nil
}

// decodeChat validates body against the ChatRequest schema and decodes it.
func (v *requestValidator) decodeChat(body []byte) (ChatRequest, error) {
	var req ChatRequest
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, err
	}
	if err := v.chat.VisitJSON(raw); err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}
