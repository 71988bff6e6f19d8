package sitegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	apperrors "rapidsite-ai-api/pkg/errors"
)

type fakeSessionRepo struct {
	sessions map[string]*entity.ConversationSession
	nextID   int
	updated  []*entity.ConversationSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.ConversationSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.ConversationSession) error {
	r.nextID++
	session.ID = fmt.Sprintf("session-%d", r.nextID)
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*entity.ConversationSession, error) {
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.ConversationSession, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeSessionRepo) Update(_ context.Context, session *entity.ConversationSession) error {
	r.sessions[session.ID] = session
	r.updated = append(r.updated, session)
	return nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	var items []*entity.ConversationSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			items = append(items, s)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

type fakeTurnRepo struct {
	turns []*entity.ConversationTurn
}

func (r *fakeTurnRepo) Create(_ context.Context, turn *entity.ConversationTurn) error {
	r.turns = append(r.turns, turn)
	return nil
}

func (r *fakeTurnRepo) ListBySession(_ context.Context, sessionID string, p repository.Pagination) (*repository.PagedResult[*entity.ConversationTurn], error) {
	var items []*entity.ConversationTurn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			items = append(items, t)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *fakeTurnRepo) ListRecentBySession(_ context.Context, sessionID string, limit int) ([]*entity.ConversationTurn, error) {
	var items []*entity.ConversationTurn
	for _, t := range r.turns {
		if t.SessionID == sessionID {
			items = append(items, t)
		}
	}
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items, nil
}

type stubChatChain struct {
	msg    *schema.Message
	err    error
	inputs []*wfmodel.DesignChatInput
}

func (s *stubChatChain) Invoke(_ context.Context, in *wfmodel.DesignChatInput) (*schema.Message, error) {
	s.inputs = append(s.inputs, in)
	return s.msg, s.err
}

func newTestChatService(chain *stubChatChain) (*DesignChatService, *fakeSessionRepo, *fakeTurnRepo) {
	sessionRepo := newFakeSessionRepo()
	turnRepo := &fakeTurnRepo{}
	svc := &DesignChatService{
		chain:       chain,
		sessionRepo: sessionRepo,
		turnRepo:    turnRepo,
		tx:          fakeTransactor{},
		usage:       &fakeUsageRecorder{},
		cfg:         testConfig(),
	}
	return svc, sessionRepo, turnRepo
}

func TestChatCreatesSessionAndPersistsTurns(t *testing.T) {
	reply := "好的，已记录。\n```project-brief-update\n{\"purpose\": \"bakery site\", \"webStructure\": [\"index.html\", \"menu.html\"]}\n```\n" +
		"QUICK_REPLIES: [{\"text\": \"看看配色\", \"value\": \"colors\"}]"
	chain := &stubChatChain{msg: assistantMessage(reply)}
	svc, sessionRepo, turnRepo := newTestChatService(chain)

	result, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:  "user-1",
		Message: "我想做一个面包店网站",
	})

	require.NoError(t, err)
	assert.Equal(t, "session-1", result.SessionID)
	assert.Equal(t, "好的，已记录。", result.Reply)

	// 简报已合并进会话
	assert.True(t, result.BriefUpdated)
	require.NotNil(t, result.Brief)
	assert.Equal(t, "bakery site", result.Brief.Purpose)
	assert.Equal(t, []string{"index.html", "menu.html"}, result.Brief.WebStructure)

	require.Len(t, result.QuickReplies, 1)
	assert.Equal(t, "colors", result.QuickReplies[0].Value)

	// 用户与助手各落一条回合，助手回合带结构化元数据
	require.Len(t, turnRepo.turns, 2)
	assert.Equal(t, entity.RoleUser, turnRepo.turns[0].Role)
	assert.Equal(t, entity.RoleAssistant, turnRepo.turns[1].Role)
	assert.Nil(t, turnRepo.turns[0].Metadata)

	var meta turnMetadata
	require.NoError(t, json.Unmarshal(turnRepo.turns[1].Metadata, &meta))
	require.NotNil(t, meta.BriefUpdate)
	assert.Equal(t, "bakery site", meta.BriefUpdate.Purpose)
	assert.Len(t, meta.QuickReplies, 1)

	assert.Len(t, sessionRepo.updated, 1)
}

func TestChatEmptyMessage(t *testing.T) {
	svc, _, _ := newTestChatService(&stubChatChain{})

	_, err := svc.Chat(context.Background(), &ChatRequest{UserID: "user-1", Message: "  "})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestChatExistingSessionWithHistory(t *testing.T) {
	chain := &stubChatChain{msg: assistantMessage("继续聊")}
	svc, sessionRepo, turnRepo := newTestChatService(chain)

	session := entity.NewConversationSession("user-1", "")
	require.NoError(t, sessionRepo.Create(context.Background(), session))
	turnRepo.turns = []*entity.ConversationTurn{
		entity.NewConversationTurn(session.ID, entity.RoleUser, "第一句", nil),
		entity.NewConversationTurn(session.ID, entity.RoleAssistant, "第一答", nil),
	}

	result, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:    "user-1",
		SessionID: session.ID,
		Message:   "第二句",
	})

	require.NoError(t, err)
	assert.Equal(t, session.ID, result.SessionID)

	require.Len(t, chain.inputs, 1)
	require.Len(t, chain.inputs[0].History, 2)
	assert.Equal(t, "user", chain.inputs[0].History[0].Role)
	assert.Equal(t, "第一句", chain.inputs[0].History[0].Content)
}

func TestChatHistoryWindowKeepsLatestTurns(t *testing.T) {
	// 超出窗口后带给模型的是最近的回合，最早的被挤出
	chain := &stubChatChain{msg: assistantMessage("好")}
	svc, sessionRepo, turnRepo := newTestChatService(chain)

	session := entity.NewConversationSession("user-1", "")
	require.NoError(t, sessionRepo.Create(context.Background(), session))
	for i := 0; i < 25; i++ {
		turnRepo.turns = append(turnRepo.turns,
			entity.NewConversationTurn(session.ID, entity.RoleUser, fmt.Sprintf("第%d句", i), nil))
	}

	_, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:    "user-1",
		SessionID: session.ID,
		Message:   "最新一句",
	})

	require.NoError(t, err)
	require.Len(t, chain.inputs, 1)
	history := chain.inputs[0].History
	require.Len(t, history, 20)
	assert.Equal(t, "第5句", history[0].Content)
	assert.Equal(t, "第24句", history[19].Content)
}

func TestChatSessionOwnership(t *testing.T) {
	svc, sessionRepo, _ := newTestChatService(&stubChatChain{})
	session := entity.NewConversationSession("user-2", "")
	require.NoError(t, sessionRepo.Create(context.Background(), session))

	_, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:    "user-1",
		SessionID: session.ID,
		Message:   "hi",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestChatSessionNotFound(t *testing.T) {
	svc, _, _ := newTestChatService(&stubChatChain{})

	_, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:    "user-1",
		SessionID: "missing",
		Message:   "hi",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSessionNotFound, apperrors.AsAppError(err).Code)
}

func TestChatModelFailure(t *testing.T) {
	chain := &stubChatChain{err: errors.New("request timeout")}
	svc, _, turnRepo := newTestChatService(chain)

	_, err := svc.Chat(context.Background(), &ChatRequest{UserID: "user-1", Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLLMTimeout, apperrors.AsAppError(err).Code)
	// 失败的回合不落库
	assert.Empty(t, turnRepo.turns)
}

func TestChatDecodeFailureIsNotFatal(t *testing.T) {
	// 块存在但负载坏掉：对话照常返回，简报不更新
	reply := "回复正文\n```project-brief-update\n这不是 JSON\n```"
	chain := &stubChatChain{msg: assistantMessage(reply)}
	svc, _, turnRepo := newTestChatService(chain)

	result, err := svc.Chat(context.Background(), &ChatRequest{UserID: "user-1", Message: "hi"})

	require.NoError(t, err)
	assert.False(t, result.BriefUpdated)
	assert.Equal(t, "回复正文", result.Reply)
	assert.Len(t, turnRepo.turns, 2)
}

func TestChatTruncatedBlockFlagged(t *testing.T) {
	reply := "正文\n```quick-replies\n[\"选项一\", \"选"
	chain := &stubChatChain{msg: assistantMessage(reply)}
	svc, _, turnRepo := newTestChatService(chain)

	result, err := svc.Chat(context.Background(), &ChatRequest{UserID: "user-1", Message: "hi"})

	require.NoError(t, err)
	assert.True(t, result.PossiblyTruncated)

	var meta turnMetadata
	require.NoError(t, json.Unmarshal(turnRepo.turns[1].Metadata, &meta))
	assert.True(t, meta.Truncated)
}

func TestChatBriefMergeKeepsExistingFields(t *testing.T) {
	reply := "```project-brief-update\n{\"designNotes\": \"dark mode\"}\n```"
	chain := &stubChatChain{msg: assistantMessage(reply)}
	svc, sessionRepo, _ := newTestChatService(chain)

	session := entity.NewConversationSession("user-1", "")
	session.Brief = &entity.ProjectBrief{Purpose: "portfolio", DesignNotes: "light mode"}
	require.NoError(t, sessionRepo.Create(context.Background(), session))

	result, err := svc.Chat(context.Background(), &ChatRequest{
		UserID:    "user-1",
		SessionID: session.ID,
		Message:   "改成暗色",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Brief)
	assert.Equal(t, "dark mode", result.Brief.DesignNotes)
	// 更新里未提到的字段保持原值
	assert.Equal(t, "portfolio", result.Brief.Purpose)
}

func TestChatInteractiveComponent(t *testing.T) {
	reply := `INTERACTIVE_COMPONENT: {"type": "color-picker", "promptKey": "palette", "props": {"colors": ["#111", "#eee"]}}`
	chain := &stubChatChain{msg: assistantMessage(reply)}
	svc, _, _ := newTestChatService(chain)

	result, err := svc.Chat(context.Background(), &ChatRequest{UserID: "user-1", Message: "帮我选色"})

	require.NoError(t, err)
	require.NotNil(t, result.Interactive)
	assert.Equal(t, "color-picker", result.Interactive.Type)
	assert.Equal(t, "palette", result.Interactive.PromptKey)
}

func TestListTurnsChecksOwnership(t *testing.T) {
	svc, sessionRepo, _ := newTestChatService(&stubChatChain{})
	session := entity.NewConversationSession("user-2", "")
	require.NoError(t, sessionRepo.Create(context.Background(), session))

	_, err := svc.ListTurns(context.Background(), "user-1", session.ID, repository.NewPagination(1, 20))

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestGetSession(t *testing.T) {
	svc, sessionRepo, _ := newTestChatService(&stubChatChain{})
	session := entity.NewConversationSession("user-1", "site-1")
	require.NoError(t, sessionRepo.Create(context.Background(), session))

	got, err := svc.GetSession(context.Background(), "user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = svc.GetSession(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSessionNotFound, apperrors.AsAppError(err).Code)
}
