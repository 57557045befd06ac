// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is one request seen by an [APIServer].
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// Response is a canned reply. Body is JSON-encoded unless it is a
// []byte or string, which are written verbatim.
type Response struct {
	Status int
	Header map[string]string
	Body   any
}

// APIServer records requests and answers from a route table keyed by
// "METHOD /path". Unknown routes get 404 with a not_found error body.
type APIServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Response
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewAPIServer starts a server that is closed by t.Cleanup.
func NewAPIServer(t *testing.T) *APIServer {
	t.Helper()
	server := &APIServer{
		routes:   make(map[string]Response),
		handlers: make(map[string]http.HandlerFunc),
	}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))
	t.Cleanup(server.Close)
	return server
}

// Reply registers a canned response for route ("GET /v1/accounts").
func (s *APIServer) Reply(route string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = response
}

// Handle registers a custom handler for route, for tests that need to
// stall or inspect the request before answering.
func (s *APIServer) Handle(route string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[route] = handler
}

// Requests returns a copy of the requests seen so far.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Last returns the most recent request. It fails the test if none was
// recorded.
func (s *APIServer) Last(t TB) RecordedRequest {
	t.Helper()
	requests := s.Requests()
	if len(requests) == 0 {
		t.Fatalf("no requests recorded")
	}
	return requests[len(requests)-1]
}

func (s *APIServer) serve(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	request.Body = io.NopCloser(bytes.NewReader(body))
	route := request.Method + " " + request.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.Query(),
		Header: request.Header.Clone(),
		Body:   body,
	})
	handler, hasHandler := s.handlers[route]
	response, hasResponse := s.routes[route]
	s.mu.Unlock()

	if hasHandler {
		handler(writer, request)
		return
	}
	if !hasResponse {
		response = Response{
			Status: http.StatusNotFound,
			Body:   map[string]string{"code": "not_found", "message": "no route for " + route},
		}
	}
	writeResponse(writer, response)
}

func writeResponse(writer http.ResponseWriter, response Response) {
	for key, value := range response.Header {
		writer.Header().Set(key, value)
	}
	status := response.Status
	if status == 0 {
		status = http.StatusOK
	}

	var payload []byte
	switch body := response.Body.(type) {
	case nil:
	case []byte:
		payload = body
	case string:
		payload = []byte(body)
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			http.Error(writer, err.Error(), http.StatusInternalServerError)
			return
		}
		payload = encoded
		writer.Header().Set("Content-Type", "application/json")
	}
	writer.WriteHeader(status)
	writer.Write(payload)
}
