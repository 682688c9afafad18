package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/session"
)

func testFormContext() *formctx.FormContext {
	schema := &formctx.FormSchema{
		FormID: "leave_request",
		Fields: []formctx.FormField{
			{ID: "leave_type", Type: formctx.FieldDropdown, Required: true, Options: []string{"Annual", "Sick"}, Prompt: "Leave type"},
			{ID: "start_date", Type: formctx.FieldDate, Required: true, Prompt: "Start date"},
			{ID: "reason", Type: formctx.FieldText, Required: true, Prompt: "Reason"},
		},
	}
	return &formctx.FormContext{
		Title:          "Leave Request Form",
		Schema:         schema,
		RequiredFields: []string{"leave_type", "start_date", "reason"},
		FieldTypes: map[string]formctx.FieldType{
			"leave_type": formctx.FieldDropdown,
			"start_date": formctx.FieldDate,
			"reason":     formctx.FieldText,
		},
		Condensed: "# Leave Request Form\n",
	}
}

func TestGreeting_IncludesTitleAndFieldSummary(t *testing.T) {
	fc := testFormContext()
	act, state := Greeting(fc)
	assert.Equal(t, action.KindMessage, act.Kind)
	assert.Contains(t, act.Text, "Leave Request Form")
	assert.Nil(t, state)
}

type stubClient struct {
	responses []string
	calls     int
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return &llm.Response{Content: s.responses[i]}, nil
}

func TestExtraction_MergesValidatedAnswers(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)

	client := &stubClient{responses: []string{
		`{"intent":"multi_answer","answers":{"leave_type":"Sick","start_date":"2026-01-05"},"message":"got it"}`,
	}}

	result := Extraction(context.Background(), client, "default", fc, form, st, "I need sick leave starting Jan 5 2026", nil)

	assert.Nil(t, result.DirectAction)
	assert.True(t, st.InitialExtractionDone)
	assert.Equal(t, "Sick", form.Answer("leave_type"))
	assert.Equal(t, "2026-01-05", form.Answer("start_date"))
}

func TestExtraction_DropsUnparseableDate(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)

	client := &stubClient{responses: []string{
		`{"intent":"multi_answer","answers":{"start_date":"not a date"},"message":"hm"}`,
	}}

	Extraction(context.Background(), client, "default", fc, form, st, "whenever", nil)

	assert.Nil(t, form.Answer("start_date"))
}

func TestValidateInput_FormatValidationRejectsBadDate(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingFieldID = "start_date"
	st.PendingActionType = string(action.KindAskDate)

	result := ValidateInput(form, st, "not a date")

	require.NotEmpty(t, result.RetryMessage)
	assert.Nil(t, form.Answer("start_date"))
	assert.Equal(t, "start_date", st.PendingFieldID, "pending field stays set on rejection")
}

func TestValidateInput_FormatValidationAcceptsGoodDate(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingFieldID = "start_date"
	st.PendingActionType = string(action.KindAskDate)

	result := ValidateInput(form, st, "2026-01-05")

	assert.Empty(t, result.RetryMessage)
	assert.Equal(t, "2026-01-05", form.Answer("start_date"))
	assert.Empty(t, st.PendingFieldID)
}

func TestValidateInput_TextHeldForFinalizeJudgment(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingFieldID = "reason"
	st.PendingActionType = string(action.KindAskText)

	ValidateInput(form, st, "family emergency")

	assert.Equal(t, "family emergency", st.PendingTextValue)
	assert.Equal(t, "reason", st.PendingTextFieldID)
	assert.Nil(t, form.Answer("reason"), "text answers are never stored directly by validate_input")
}

func TestValidateInput_TextAppendsValidateDirective(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingFieldID = "reason"
	st.PendingActionType = string(action.KindAskText)

	result := ValidateInput(form, st, "qwerty")

	require.NotEmpty(t, result.Directive)
	assert.Contains(t, result.Directive, "VALIDATE this answer for reason")
	assert.Contains(t, result.Directive, "qwerty")
}

func TestToolHandler_AppendsDirectiveAndClearsPending(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)
	st.PendingToolName = "get_leave_types"

	messages := ToolHandler(st, []session.ToolResult{
		{ToolName: "get_leave_types", Result: []any{
			map[string]any{"name": "Annual"},
			map[string]any{"name": "Sick"},
		}},
	})

	require.Len(t, messages, 1)
	assert.Equal(t, session.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Annual")
	assert.Contains(t, messages[0].Content, "get_leave_types")
	assert.Empty(t, st.PendingToolName)
}

func TestToolHandler_ExtractsHintFromArbitraryWrapperKey(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)

	messages := ToolHandler(st, []session.ToolResult{
		{ToolName: "search_establishments", Result: map[string]any{
			"establishments": []any{
				map[string]any{"name": map[string]any{"english": "Riyadh Tech"}},
			},
		}},
	})

	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "Riyadh Tech")
}

func TestFinalize_AcceptsPendingTextOnFieldChange(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingTextValue = "family emergency"
	st.PendingTextFieldID = "reason"

	act := action.AskDate("start_date", "Start date", "")
	Finalize(form, st, act)

	assert.Equal(t, "family emergency", form.Answer("reason"))
	assert.Empty(t, st.PendingTextValue)
	assert.Empty(t, st.PendingTextFieldID)
	assert.Equal(t, "start_date", st.PendingFieldID)
}

func TestFinalize_RejectsPendingTextOnSameFieldReask(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)
	st.PendingTextValue = "asdf gibberish"
	st.PendingTextFieldID = "reason"

	act := action.AskText("reason", "Reason", "Sorry, could you say more?")
	Finalize(form, st, act)

	assert.Nil(t, form.Answer("reason"))
	assert.Empty(t, st.PendingTextValue)
}

func TestFinalize_PopulatesFormCompleteData(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	require.NoError(t, form.SetAnswer("leave_type", "Annual"))

	st := session.NewState(fc)
	act := action.FormComplete(nil, "done")

	result := Finalize(form, st, act)

	assert.Equal(t, "Annual", result.Data["leave_type"])
}

func TestFinalize_RecordsAssistantHistory(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)

	Finalize(form, st, action.Message("hello"))

	require.Len(t, st.ConversationHistory, 1)
	assert.Equal(t, session.RoleAssistant, st.ConversationHistory[0].Role)
	assert.Contains(t, st.ConversationHistory[0].Content, "hello")
}

func TestFinalize_StepCheckpointOverridesActionWhenStepFieldsComplete(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	require.NoError(t, form.SetAnswer("leave_type", "Annual"))
	st := session.NewState(fc)
	st.MaxStep = 2
	st.CurrentStep = 1
	st.RequiredFieldsByStep[1] = []string{"leave_type"}
	st.RequiredFieldsByStep[2] = []string{"start_date"}

	act := action.AskDate("start_date", "Start date", "")
	result := Finalize(form, st, act)

	assert.Equal(t, action.KindMessage, result.Kind)
	assert.True(t, st.AwaitingStepConfirmation)
	assert.Contains(t, result.Text, "Step 1 complete")
}

func TestConversation_ReturnsDecodedActionFromGuardedCall(t *testing.T) {
	fc := testFormContext()
	form := formstate.New(fc.Schema)
	st := session.NewState(fc)

	client := &stubClient{responses: []string{
		`{"action":"ASK_DROPDOWN","field_id":"leave_type","label":"Leave type","options":["Annual","Sick"],"message":"What type of leave?"}`,
	}}

	act := Conversation(context.Background(), client, "default", fc, form, st, nil)

	assert.Equal(t, action.KindAskDropdown, act.Kind)
	assert.Equal(t, "leave_type", act.FieldID)
}

func TestStepConfirmation_ConfirmAdvancesStepAndInjectsDirective(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)
	st.CurrentStep = 1
	st.MaxStep = 2
	st.RequiredFieldsByStep[1] = []string{"leave_type"}
	st.RequiredFieldsByStep[2] = []string{"start_date"}
	st.AwaitingStepConfirmation = true

	result := StepConfirmation(st, "confirm")

	assert.Equal(t, 2, st.CurrentStep)
	assert.Contains(t, st.CompletedSteps, 1)
	assert.False(t, st.AwaitingStepConfirmation)
	assert.Nil(t, result.Action, "confirm routes on to the conversation node, it doesn't end the turn")
	require.Len(t, result.HistoryEntries, 1)
	assert.Contains(t, result.HistoryEntries[0].Content, "confirmed Step 1")
}

func TestStepConfirmation_EditRequestWithInferredFieldSkipsLLM(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)
	st.CurrentStep = 1
	st.MaxStep = 1
	st.RequiredFieldsByStep[1] = []string{"leave_type"}
	st.FieldPromptMap["leave_type"] = "Leave type"
	st.AwaitingStepConfirmation = true

	result := StepConfirmation(st, "actually change the leave_type")

	assert.True(t, st.AllowAnsweredFieldUpdate)
	require.NotNil(t, result.Action, "an inferred field ends the turn directly, skipping the LLM")
	assert.Equal(t, "leave_type", result.Action.FieldID)
	assert.Equal(t, "leave_type", st.PendingFieldID)
}

func TestStepConfirmation_EditRequestWithoutInferredFieldInjectsDirective(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)
	st.CurrentStep = 1
	st.MaxStep = 1
	st.RequiredFieldsByStep[1] = []string{"leave_type"}
	st.AwaitingStepConfirmation = true

	result := StepConfirmation(st, "change something")

	assert.Nil(t, result.Action)
	require.Len(t, result.HistoryEntries, 1)
	assert.Contains(t, result.HistoryEntries[0].Content, "requested changes before confirming")
}

func TestStepConfirmation_AmbiguousReplyReprompts(t *testing.T) {
	fc := testFormContext()
	st := session.NewState(fc)
	st.CurrentStep = 1
	st.MaxStep = 1

	result := StepConfirmation(st, "banana")

	require.NotNil(t, result.Action)
	assert.Equal(t, action.KindMessage, result.Action.Kind)
	assert.False(t, st.AwaitingStepConfirmation, "an ambiguous reply leaves the flag as it was; this test never set it")
}
