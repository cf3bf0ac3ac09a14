package domain

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Model    ModelConfig    `json:"model"`
	Store    StoreConfig    `json:"store"`
	Workflow WorkflowConfig `json:"workflow"`
	Router   RouterConfig   `json:"router"`
	Infra    InfraConfig    `json:"infra"`
	Retry    RetryConfig    `json:"retry"`
}

// RetryConfig controls retry behaviour for external API calls (LLM, webhooks).
type RetryConfig struct {
	MaxRetries     int `json:"maxRetries"`     // Maximum retry attempts (0 = no retries)
	InitialBackoff int `json:"initialBackoff"` // Initial backoff in milliseconds
	MaxBackoff     int `json:"maxBackoff"`     // Maximum backoff in milliseconds
	Multiplier     int `json:"multiplier"`     // Backoff multiplier (e.g. 2 for exponential doubling)
}

type GatewayConfig struct {
	Port           int        `json:"port"`
	Auth           AuthConfig `json:"auth"`
	AllowedOrigins []string   `json:"allowedOrigins"`
}

type AuthConfig struct {
	// AuthToken, when set, requires Authorization: Bearer <authToken> on every request.
	AuthToken string `json:"authToken,omitempty"`
}

// ModelConfig selects the LLM provider used for turn decisions and summaries.
type ModelConfig struct {
	Provider     string `json:"provider"` // "ollama" | "openai" | "local"
	DefaultModel string `json:"defaultModel"`
	BaseURL      string `json:"baseUrl,omitempty"`   // override the provider endpoint
	APIKeyEnv    string `json:"apiKeyEnv,omitempty"` // env var holding the API key (hosted providers)
}

// StoreConfig points at the persistent task store and the local pending-action file.
type StoreConfig struct {
	DatabaseURL string `json:"databaseUrl"` // postgres:// DSN; empty means in-memory store
	PendingPath string `json:"pendingPath"` // SQLite file for pending confirmations; empty means in-memory
}

// WorkflowConfig holds the workflow-engine webhook endpoints.
type WorkflowConfig struct {
	PipelineURL    string `json:"pipelineUrl"`
	CreateItemURL  string `json:"createItemUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// RouterConfig points at an optional YAML file of intent-override rules.
type RouterConfig struct {
	RulesPath string `json:"rulesPath,omitempty"`
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

// =============================================================================
// Tooling
// =============================================================================

// ToolKind is the side-effect class of a tool. Read tools never mutate
// external state; write tools require explicit user confirmation.
type ToolKind string

const (
	ToolKindRead  ToolKind = "read"
	ToolKindWrite ToolKind = "write"
)

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        ToolKind        `json:"kind"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// CallOrigin records which component produced a ToolCallRequest.
type CallOrigin string

const (
	OriginOverride CallOrigin = "override" // deterministic intent router
	OriginModel    CallOrigin = "model"    // parsed from an LLM response
)

// ToolCallRequest names a tool plus its JSON argument object. Requests must
// pass registry schema validation before they reach a collaborator.
type ToolCallRequest struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"arguments"`
	Origin CallOrigin      `json:"origin"`
}

// ToolCallResult is the normalized outcome of one tool invocation. Exactly one
// of Data (Ok) or FailReason (!Ok) carries the payload. PartialWarning is set
// when a two-step write succeeded upstream but its audit record failed.
type ToolCallResult struct {
	Request        ToolCallRequest `json:"request"`
	Ok             bool            `json:"ok"`
	Data           string          `json:"data,omitempty"`
	FailReason     string          `json:"failReason,omitempty"`
	PartialWarning string          `json:"partialWarning,omitempty"`
}

// ToolResult is what a tool implementation returns on success. Metadata lets a
// tool attach out-of-band detail (e.g. a partial-write warning) without
// polluting the payload handed to the model.
type ToolResult struct {
	Data     string            `json:"data"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MetaPartialWarning is the metadata key a tool sets when the user-facing side
// effect happened but a secondary bookkeeping step failed.
const MetaPartialWarning = "partialWarning"

// =============================================================================
// Conversation
// =============================================================================

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one entry of a session's exchange history.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConversationTurn accumulates one user-prompt-to-final-answer cycle. It is
// owned by a single goroutine and discarded once the answer is returned.
type ConversationTurn struct {
	SessionID string           `json:"sessionId"`
	UserText  string           `json:"userText"`
	Calls     []ToolCallResult `json:"calls,omitempty"`
	Answer    string           `json:"answer"`
}

// =============================================================================
// Confirmation Gate
// =============================================================================

// ConfirmationState tracks the lifecycle of a write-class tool request across
// the two user turns of the confirmation gate.
type ConfirmationState string

const (
	ConfirmPending   ConfirmationState = "pending"
	ConfirmConfirmed ConfirmationState = "confirmed"
	ConfirmDeclined  ConfirmationState = "declined"
)

// PendingAction is a write-class tool request parked until the user confirms
// or declines. Persisted (not held in memory) so a dropped connection between
// the request turn and the confirm turn leaves no ambiguous state. At most one
// pending action exists per session: a newer request replaces the older one.
type PendingAction struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	Tool        string          `json:"tool"`
	Args        json.RawMessage `json:"arguments"`
	Fingerprint string          `json:"fingerprint"` // sha256 of tool + canonical args
	CreatedAt   time.Time       `json:"createdAt"`
}

// =============================================================================
// Task Store
// =============================================================================

// Task statuses accepted by the store.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
)

// TaskRecord is one row of the persistent task store.
type TaskRecord struct {
	TaskID    string    `json:"task_id"`
	Borrower  string    `json:"borrower"`
	Officer   string    `json:"officer"`
	Note      string    `json:"note"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskFilter narrows a task query. Borrower and Officer are partial,
// case-insensitive matches; Status is exact. Empty fields are ignored.
type TaskFilter struct {
	Borrower string `json:"borrower,omitempty"`
	Officer  string `json:"officer,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ValidStatus reports whether s is one of the accepted task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}
