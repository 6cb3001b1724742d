package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vea-app/vea/internal/functions"
	"github.com/vea-app/vea/internal/intent"
	"github.com/vea-app/vea/internal/media"
	"github.com/vea-app/vea/internal/types"
	"github.com/vea-app/vea/pkg/llm"
)

// historyRefWindow is how far back the orchestrator looks for a previously
// generated image to use as an implicit edit reference.
const historyRefWindow = 5

// TurnResult is the outcome of one conversation turn. Reply is the assistant
// message already appended to the session. VideoTaskID is set when a video
// job was submitted and the caller must schedule the poller for Reply.
type TurnResult struct {
	Reply       *types.Message
	VideoTaskID string
}

// Orchestrator runs the per-turn pipeline: classify the utterance, route it
// to media generation or the text/function path, and append the assistant
// reply to the session.
type Orchestrator struct {
	provider   llm.Provider
	registry   *functions.Registry
	dispatcher *functions.Dispatcher
	media      *media.Gateway // nil disables media generation
	budget     *HistoryBudget
}

// New creates an orchestrator. gateway may be nil, in which case media
// requests get a capability explanation instead.
func New(provider llm.Provider, registry *functions.Registry, dispatcher *functions.Dispatcher, gateway *media.Gateway, budget *HistoryBudget) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		registry:   registry,
		dispatcher: dispatcher,
		media:      gateway,
		budget:     budget,
	}
}

// RunTurn processes one user utterance. The user message and the assistant
// reply are both appended to the session before it returns. It fails only
// on hard provider errors; media and function failures become soft replies.
func (o *Orchestrator) RunTurn(ctx context.Context, session *types.ConversationSession, utterance string, refs []string, identity types.Identity) (*TurnResult, error) {
	userMsg := types.NewMessage(session.ID, types.RoleUser, utterance)
	session.Append(userMsg)

	classified := intent.Classify(utterance, len(refs) > 0)
	slog.Debug("turn classified", "session_id", session.ID, "kind", classified.Kind)

	switch classified.Kind {
	case intent.KindImage:
		if len(refs) == 0 {
			refs = recentImageRefs(session)
		}
		return o.imageTurn(ctx, session, classified.CleanPrompt, refs)
	case intent.KindVideo:
		if len(refs) == 0 {
			refs = recentImageRefs(session)
		}
		var ref string
		if len(refs) > 0 {
			ref = refs[0]
		}
		return o.videoTurn(ctx, session, classified.CleanPrompt, ref)
	default:
		return o.textTurn(ctx, session, identity)
	}
}

// recentImageRefs scans the tail of the history for the most recent resolved
// image, so "make this blue" edits the picture the assistant just produced.
func recentImageRefs(session *types.ConversationSession) []string {
	tail := session.Recent(historyRefWindow)
	for i := len(tail) - 1; i >= 0; i-- {
		m := tail[i]
		if m.MediaType == types.MediaImage && m.MediaURL != "" && !m.IsGenerating {
			return []string{m.MediaURL}
		}
	}
	return nil
}

func (o *Orchestrator) imageTurn(ctx context.Context, session *types.ConversationSession, prompt string, refs []string) (*TurnResult, error) {
	if o.media == nil {
		return o.reply(session, capabilitiesReply), nil
	}

	res := o.media.GenerateImage(ctx, prompt, refs)
	if !res.Success {
		return o.reply(session, "Sorry, I couldn't generate the image: "+res.Error), nil
	}

	msg := types.NewMessage(session.ID, types.RoleAssistant, "Here's your image.")
	msg.MediaType = types.MediaImage
	msg.MediaURL = res.URL
	session.Append(msg)
	return &TurnResult{Reply: msg}, nil
}

func (o *Orchestrator) videoTurn(ctx context.Context, session *types.ConversationSession, prompt, ref string) (*TurnResult, error) {
	if o.media == nil {
		return o.reply(session, capabilitiesReply), nil
	}

	res := o.media.GenerateVideo(ctx, prompt, ref)
	if !res.Success {
		return o.reply(session, "Sorry, I couldn't start the video: "+res.Error), nil
	}

	msg := types.NewMessage(session.ID, types.RoleAssistant, "Generating your video. This can take a few minutes; I'll update this message when it's ready.")
	msg.MediaType = types.MediaVideo
	msg.MediaURL = res.TaskID // replaced with the playable URL when polling resolves
	msg.IsGenerating = true
	session.Append(msg)
	return &TurnResult{Reply: msg, VideoTaskID: res.TaskID}, nil
}

func (o *Orchestrator) textTurn(ctx context.Context, session *types.ConversationSession, identity types.Identity) (*TurnResult, error) {
	native := o.provider.SupportsTools()
	system := SystemPrompt(o.registry, native)
	messages := o.budget.Build(system, session.Messages())

	var tools []llm.Tool
	if native {
		tools = o.registry.AsTools()
	}

	resp, err := o.provider.Complete(ctx, messages, tools)
	if err != nil {
		return nil, fmt.Errorf("completing turn: %w", err)
	}

	call, ok := extractCall(resp)
	if !ok {
		return o.reply(session, stripEmphasis(resp.Content)), nil
	}

	result := o.dispatcher.Dispatch(ctx, call.Name, call.Params, identity)
	if !result.Success {
		return o.reply(session, dispatchFailureReply(result.Error)), nil
	}
	return o.narrate(ctx, session, messages, resp, call, result)
}

// dispatchFailureReply reports a failed function call directly; the error
// never goes through a narration pass.
func dispatchFailureReply(errText string) string {
	return "Sorry, that didn't work: " + errText + ". Feel free to try something else."
}

// narrate makes the second completion pass: the model sees the successful
// function result and phrases the answer. If narration fails the raw result
// is surfaced so the user still gets their data. A native tool call is
// echoed as assistant tool_calls plus a role "tool" result message, which is
// the shape OpenAI requires; the textual grammar path folds the result into
// a system message instead.
func (o *Orchestrator) narrate(ctx context.Context, session *types.ConversationSession, messages []llm.Message, first *llm.Response, call *functions.Call, result functions.Result) (*TurnResult, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"success":false,"error":"result serialization failed"}`)
	}

	var followup []llm.Message
	if len(first.ToolCalls) > 0 {
		followup = append(messages,
			llm.Message{Role: "assistant", Content: first.Content, Tools: first.ToolCalls},
			llm.Message{Role: "tool", ToolCallID: first.ToolCalls[0].ID, Content: string(payload)},
			llm.Message{Role: "system", Content: narrationInstruction},
		)
	} else {
		followup = append(messages,
			llm.Message{Role: "assistant", Content: first.Content},
			llm.Message{Role: "system", Content: fmt.Sprintf("Result of %s: %s\n\n%s", call.Name, payload, narrationInstruction)},
		)
	}

	resp, err := o.provider.Complete(ctx, followup, nil)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			slog.Warn("narration failed, surfacing raw result", "function", call.Name, "error", err)
		}
		return o.reply(session, fallbackReply(result)), nil
	}
	return o.reply(session, stripEmphasis(resp.Content)), nil
}

func (o *Orchestrator) reply(session *types.ConversationSession, content string) *TurnResult {
	msg := types.NewMessage(session.ID, types.RoleAssistant, content)
	session.Append(msg)
	return &TurnResult{Reply: msg}
}

// extractCall finds a function call in the response: native tool calls take
// precedence, then the textual directive grammar.
func extractCall(resp *llm.Response) (*functions.Call, bool) {
	if len(resp.ToolCalls) > 0 {
		tc := resp.ToolCalls[0]
		return &functions.Call{
			Name:   tc.Function.Name,
			Params: decodeArguments(tc.Function.Arguments),
		}, true
	}
	return functions.ParseDirective(resp.Content)
}

// decodeArguments parses native tool-call arguments into string params.
// Providers send the arguments object either inline or double-encoded as a
// JSON string; both shapes are accepted, and non-string values are
// stringified.
func decodeArguments(raw json.RawMessage) map[string]string {
	out := make(map[string]string)
	if len(raw) == 0 {
		return out
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return out
		}
		raw = json.RawMessage(inner)
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		slog.Warn("unparseable tool arguments", "raw", string(raw), "error", err)
		return out
	}
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	return out
}

// fallbackReply renders a successful dispatch result directly when
// narration is unavailable.
func fallbackReply(result functions.Result) string {
	data, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return "✓ Done."
	}
	return "✓ " + string(data)
}

// stripEmphasis removes markdown bold and italic markers. The dashboard chat
// renders plain text, so emphasis markers would show up literally.
func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}
