// Package session defines the per-conversation state that flows through
// the graph driver on every turn, and the pure reducers used to fold a
// turn's updates into it.
//
// Grounded on agent/state.py's FormPilotState TypedDict: the same field
// grouping (input / accumulated / phase / output / intermediate) is kept,
// translated into a single mutable Go struct since Go has no LangGraph
// reducer machinery to lean on — State.Apply below plays that role.
package session

import (
	"github.com/formpilotai/formpilot/internal/formctx"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ToolResult is one entry of a tool_results array supplied by the client
// after it executes a TOOL_CALL action (§4.9).
type ToolResult struct {
	ToolName string `json:"tool_name"`
	Result   any    `json:"result"`
}

// State is the full conversation state for one session, persisted across
// turns in the session store.
type State struct {
	// --- Accumulated (persists across turns) ---
	Answers             map[string]any
	ConversationHistory []Message
	RequiredFields       []string
	FieldTypes           map[string]formctx.FieldType

	// --- Phase tracking ---
	InitialExtractionDone bool
	PendingFieldID         string
	PendingActionType      string
	PendingTextValue       string
	PendingTextFieldID     string
	PendingToolName        string

	// --- Supplemental: multi-step form checkpoints (§12.2) ---
	CurrentStep              int
	MaxStep                  int
	CompletedSteps           []int
	AwaitingStepConfirmation bool
	AllowAnsweredFieldUpdate bool
	RequiredFieldsByStep     map[int][]string
	FieldPromptMap           map[string]string
}

// NewState builds the zero-value accumulated state for a freshly created
// session, seeded from the form context's required fields and field types.
func NewState(fc *formctx.FormContext) *State {
	s := &State{
		Answers:              make(map[string]any),
		ConversationHistory:  nil,
		RequiredFields:       append([]string(nil), fc.RequiredFields...),
		FieldTypes:           make(map[string]formctx.FieldType, len(fc.FieldTypes)),
		RequiredFieldsByStep: make(map[int][]string),
		FieldPromptMap:       make(map[string]string),
	}
	for id, t := range fc.FieldTypes {
		s.FieldTypes[id] = t
	}

	if fc.Schema != nil {
		for _, f := range fc.Schema.Fields {
			if f.Prompt != "" {
				s.FieldPromptMap[f.ID] = f.Prompt
			}
		}
		for _, step := range fc.Schema.Steps {
			s.RequiredFieldsByStep[step.Number] = append([]string(nil), step.Fields...)
			if step.Number > s.MaxStep {
				s.MaxStep = step.Number
			}
		}
		if s.MaxStep > 0 {
			s.CurrentStep = 1
		}
	}

	return s
}

// Clone returns an independent copy of st, deep-copying every field a node
// mutates (maps, slices) so a turn can run against the clone and the
// original is only replaced once the turn completes successfully (§5: a
// canceled turn's partial updates must never reach the session).
func (st *State) Clone() *State {
	clone := *st

	clone.Answers = make(map[string]any, len(st.Answers))
	for k, v := range st.Answers {
		clone.Answers[k] = v
	}

	clone.ConversationHistory = append([]Message(nil), st.ConversationHistory...)
	clone.RequiredFields = append([]string(nil), st.RequiredFields...)

	clone.FieldTypes = make(map[string]formctx.FieldType, len(st.FieldTypes))
	for k, v := range st.FieldTypes {
		clone.FieldTypes[k] = v
	}

	clone.CompletedSteps = append([]int(nil), st.CompletedSteps...)

	clone.RequiredFieldsByStep = make(map[int][]string, len(st.RequiredFieldsByStep))
	for k, v := range st.RequiredFieldsByStep {
		clone.RequiredFieldsByStep[k] = append([]string(nil), v...)
	}

	clone.FieldPromptMap = make(map[string]string, len(st.FieldPromptMap))
	for k, v := range st.FieldPromptMap {
		clone.FieldPromptMap[k] = v
	}

	return &clone
}

// Turn is the ephemeral, per-request input to a single graph run. It is
// never persisted; only its effects on State survive past the turn.
// Grounded on FormPilotState's "Input" and "Intermediate" sections.
type Turn struct {
	UserMessage string
	ToolResults []ToolResult

	// Intermediate, reset at the start of every turn.
	ParsedLLMResponse  map[string]any
	UserMessageAdded   bool
	SkipConversation   bool
}

// MergeAnswers folds updates into the existing answers map, new values
// overwriting old ones. Grounded on agent/state.py's merge_answers reducer.
func MergeAnswers(current map[string]any, update map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(update))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// AppendHistory appends entries to history, matching LangGraph's `add`
// reducer for the conversation_history field.
func AppendHistory(history []Message, entries ...Message) []Message {
	out := make([]Message, len(history), len(history)+len(entries))
	copy(out, history)
	return append(out, entries...)
}
