package httpapi

import (
	"context"
	"fmt"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
)

// HandleChatPlatformEvent drives one turn of the same conversation graph
// the HTTP /api/chat endpoint uses, for a message arriving through a chat
// adapter (Slack, Telegram) rather than a direct API call. source and
// externalSessionID (a Slack channel ID, a Telegram chat ID, ...) key a
// session the same way conversation_id does for HTTP callers; the first
// message for a given (source, externalSessionID) pair bootstraps the
// session from defaultSchemaFilename, since chat platforms have no way to
// attach a form_context_md to an inbound message.
func (s *Server) HandleChatPlatformEvent(ctx context.Context, source, externalSessionID, userMessage, defaultSchemaFilename string) (action.Action, error) {
	conversationID := fmt.Sprintf("%s:%s", source, externalSessionID)

	sess, ok := s.store.Get(conversationID)
	if !ok {
		if s.schemas == nil || defaultSchemaFilename == "" {
			return action.Action{}, fmt.Errorf("no default schema configured for chat adapter %q", source)
		}

		content, err := s.schemas.Get(defaultSchemaFilename)
		if err != nil {
			return action.Action{}, fmt.Errorf("load default schema %q: %w", defaultSchemaFilename, err)
		}

		fc, err := formctx.Parse(content)
		if err != nil {
			return action.Action{}, fmt.Errorf("parse default schema %q: %w", defaultSchemaFilename, err)
		}
		if fc.Schema == nil {
			return action.Action{}, fmt.Errorf("default schema %q declares no structured frontmatter", defaultSchemaFilename)
		}

		sess = s.store.Create(conversationID, defaultSchemaFilename, fc)
	}

	s.store.Lock(sess.ConversationID)
	defer s.store.Unlock(sess.ConversationID)

	return s.runTurn(ctx, sess, userMessage, nil), nil
}
