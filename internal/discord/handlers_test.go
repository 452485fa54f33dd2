package discord

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"willybot/internal/command"
	"willybot/pkg/errors"
)

type fakeForwarder struct {
	answer string
	err    error
	calls  int
}

func (f *fakeForwarder) Forward(ctx context.Context, inv *command.Invocation) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type speakCall struct {
	guildID   string
	channelID string
	text      string
}

type fakeSpeaker struct {
	err   error
	calls []speakCall
}

func (s *fakeSpeaker) Speak(ctx context.Context, guildID, channelID, text string) error {
	s.calls = append(s.calls, speakCall{guildID, channelID, text})
	return s.err
}

type fakeIsolator struct {
	err      error
	duration time.Duration
	guildID  string
	userID   string
	calls    int
}

func (i *fakeIsolator) Isolate(guildID, userID string) error {
	i.calls++
	i.guildID = guildID
	i.userID = userID
	return i.err
}

func (i *fakeIsolator) Duration() time.Duration {
	return i.duration
}

// recordingResponder captures terminal replies for assertions.
type recordingResponder struct {
	mu         sync.Mutex
	state      command.ReplyState
	edits      []string
	followUps  []string
	ephemerals []string
}

func (r *recordingResponder) Defer() error {
	r.state = command.ReplyDeferred
	return nil
}

func (r *recordingResponder) Edit(content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, content)
	r.state = command.ReplyReplied
	return nil
}

func (r *recordingResponder) FollowUp(content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followUps = append(r.followUps, content)
	r.state = command.ReplyReplied
	return nil
}

func (r *recordingResponder) ReplyEphemeral(content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ephemerals = append(r.ephemerals, content)
	r.state = command.ReplyReplied
	return nil
}

func (r *recordingResponder) State() command.ReplyState {
	return r.state
}

type handlerDeps struct {
	forwarder *fakeForwarder
	speaker   *fakeSpeaker
	isolator  *fakeIsolator
	channelID string
	inVoice   bool
}

func newTestHandler(deps *handlerDeps) *Handler {
	resolve := func(guildID, userID string) (string, bool) {
		return deps.channelID, deps.inVoice
	}
	return NewHandler(deps.forwarder, deps.speaker, deps.isolator, resolve, zap.NewNop())
}

func guildInvocation(cmd string) *command.Invocation {
	return &command.Invocation{
		Command:       cmd,
		CorrelationID: "corr-1",
		UserID:        "u1",
		UserName:      "willy",
		ChannelID:     "text1",
		GuildID:       "g1",
	}
}

func TestHandleForwardedRepliesWithAnswer(t *testing.T) {
	deps := &handlerDeps{forwarder: &fakeForwarder{answer: "hola humano"}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandWillybot)
	inv.Texto = "hola willy"

	require.NoError(t, h.HandleForwarded(context.Background(), inv, r))
	require.Len(t, r.edits, 1)
	assert.Equal(t, "hola humano", r.edits[0])
	assert.Equal(t, 1, deps.forwarder.calls)
}

func TestHandleForwardedPropagatesTransportError(t *testing.T) {
	deps := &handlerDeps{forwarder: &fakeForwarder{err: errors.NewWebhookFailed("http://n8n", fmt.Errorf("refused"))}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	err := h.HandleForwarded(context.Background(), guildInvocation(command.CommandCensura), r)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeWebhook))
	assert.Empty(t, r.edits, "the router owns the error reply")
}

func TestHandleWillyTTSAcknowledgesThenSpeaks(t *testing.T) {
	deps := &handlerDeps{
		speaker:   &fakeSpeaker{},
		channelID: "voice1",
		inVoice:   true,
	}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandWillyTTS)
	inv.Mensaje = "buenas noches"

	require.NoError(t, h.HandleWillyTTS(context.Background(), inv, r))

	require.Len(t, r.edits, 1)
	assert.Equal(t, "WillyTTS: buenas noches", r.edits[0])

	require.Len(t, deps.speaker.calls, 1)
	assert.Equal(t, speakCall{"g1", "voice1", "buenas noches"}, deps.speaker.calls[0])
}

func TestHandleWillyTTSOutsideGuild(t *testing.T) {
	deps := &handlerDeps{speaker: &fakeSpeaker{}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandWillyTTS)
	inv.GuildID = ""

	err := h.HandleWillyTTS(context.Background(), inv, r)
	require.Error(t, err)

	um, ok := err.(errors.UserMessager)
	require.True(t, ok)
	assert.Equal(t, replyGuildOnly, um.UserMessage())
	assert.Empty(t, deps.speaker.calls)
}

func TestHandleWillyTTSUserNotInVoice(t *testing.T) {
	deps := &handlerDeps{speaker: &fakeSpeaker{}, inVoice: false}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	err := h.HandleWillyTTS(context.Background(), guildInvocation(command.CommandWillyTTS), r)
	require.Error(t, err)

	um, ok := err.(errors.UserMessager)
	require.True(t, ok)
	assert.Equal(t, replyJoinVoice, um.UserMessage())
	assert.Empty(t, deps.speaker.calls, "no playback without a voice channel")
	assert.Empty(t, r.edits, "no acknowledgment reply before the voice check")
}

func TestHandleWillyTTSMissingCredentialsFollowsUp(t *testing.T) {
	cfgErr := errors.NewConfigMissing(
		"ELEVENLABS_API_KEY, ELEVENLABS_VOICE_ID",
		"Faltan variables de entorno ELEVENLABS_API_KEY o ELEVENLABS_VOICE_ID.",
	)
	deps := &handlerDeps{
		speaker:   &fakeSpeaker{err: cfgErr},
		channelID: "voice1",
		inVoice:   true,
	}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandWillyTTS)
	inv.Mensaje = "hola"

	// The config message arrives as a follow-up, never as an error
	require.NoError(t, h.HandleWillyTTS(context.Background(), inv, r))

	require.Len(t, r.edits, 1)
	assert.Equal(t, "WillyTTS: hola", r.edits[0], "acknowledgment reply survives")
	require.Len(t, r.followUps, 1)
	assert.Equal(t, "Faltan variables de entorno ELEVENLABS_API_KEY o ELEVENLABS_VOICE_ID.", r.followUps[0])
}

func TestHandleWillyTTSSpeakFailurePropagates(t *testing.T) {
	deps := &handlerDeps{
		speaker:   &fakeSpeaker{err: errors.NewSynthesisFailed(500, "application/json", "server error", nil)},
		channelID: "voice1",
		inVoice:   true,
	}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	err := h.HandleWillyTTS(context.Background(), guildInvocation(command.CommandWillyTTS), r)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeSynthesis))
	assert.Empty(t, r.followUps)
}

func TestHandleAislar(t *testing.T) {
	deps := &handlerDeps{isolator: &fakeIsolator{duration: 5 * time.Minute}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandAislar)
	inv.IsContextMenu = true
	inv.TargetUserID = "victim1"

	require.NoError(t, h.HandleAislar(context.Background(), inv, r))

	assert.Equal(t, 1, deps.isolator.calls)
	assert.Equal(t, "g1", deps.isolator.guildID)
	assert.Equal(t, "victim1", deps.isolator.userID)

	require.Len(t, r.edits, 1)
	assert.Equal(t, "<@victim1> aislado durante 5 minutos.", r.edits[0])
}

func TestHandleAislarOutsideGuild(t *testing.T) {
	deps := &handlerDeps{isolator: &fakeIsolator{duration: 5 * time.Minute}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandAislar)
	inv.GuildID = ""

	err := h.HandleAislar(context.Background(), inv, r)
	require.Error(t, err)
	assert.Equal(t, 0, deps.isolator.calls)
}

func TestHandleAislarIsolateFailurePropagates(t *testing.T) {
	deps := &handlerDeps{isolator: &fakeIsolator{err: fmt.Errorf("missing permissions"), duration: 5 * time.Minute}}
	h := newTestHandler(deps)
	r := &recordingResponder{}

	inv := guildInvocation(command.CommandAislar)
	inv.TargetUserID = "victim1"

	err := h.HandleAislar(context.Background(), inv, r)
	require.Error(t, err)
	assert.Empty(t, r.edits, "the router owns the error reply")
}

func TestRegisterAllBindsEveryCommand(t *testing.T) {
	deps := &handlerDeps{
		forwarder: &fakeForwarder{answer: "ok"},
		speaker:   &fakeSpeaker{},
		isolator:  &fakeIsolator{duration: time.Minute},
	}
	h := newTestHandler(deps)

	rt := command.NewRouter(zap.NewNop(), nil)
	h.RegisterAll(rt)

	// Dispatch through the router so the full path is exercised
	r := &recordingResponder{}
	rt.Dispatch(context.Background(), guildInvocation(command.CommandWillybot), r, h.HandleForwarded)
	require.Len(t, r.edits, 1)
	assert.Equal(t, "ok", r.edits[0])
}
