// Package api defines the wire types of the AgentRouter HTTP and WebSocket
// API.
//
// # API Overview
//
// AgentRouter exposes:
//   - Agent listing, status updates and skill-based routing
//   - Task analysis and skill categorization
//   - Chat and conversation history
//   - Per-user task management
//   - A WebSocket channel at /ws
//   - Health, metrics and runtime statistics
//
// # Authentication
//
// When API keys are configured, requests carry the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// A bearer JWT may be sent instead when JWT auth is enabled; its subject
// becomes the caller's user ID.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
