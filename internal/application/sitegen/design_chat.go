package sitegen

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"rapidsite-ai-api/internal/application/sitegen/parse"
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/domain/service"
	workflowchain "rapidsite-ai-api/internal/workflow/chain"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	wfnode "rapidsite-ai-api/internal/workflow/node"
	workflowport "rapidsite-ai-api/internal/workflow/port"
	apperrors "rapidsite-ai-api/pkg/errors"
	"rapidsite-ai-api/pkg/logger"
	"rapidsite-ai-api/pkg/metrics"
)

// 每轮对话带入的最近历史条数与单条内容上限
const (
	chatHistoryLimit      = 20
	chatHistoryContentMax = 4000
)

type chatInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.DesignChatInput) (*schema.Message, error)
}

// ChatRequest 一轮设计对话请求
type ChatRequest struct {
	UserID    string
	SessionID string
	WebsiteID string
	Message   string

	Provider string
	Model    string
}

// ChatResult 一轮设计对话的结构化结果
type ChatResult struct {
	SessionID string
	Reply     string

	Brief        *entity.ProjectBrief
	BriefUpdated bool

	QuickReplies []parse.QuickReply
	Interactive  *parse.InteractiveComponent

	PossiblyTruncated bool
}

// turnMetadata 落库到助手回合 metadata 列的结构化附加信息
type turnMetadata struct {
	BriefUpdate  *parse.BriefUpdate          `json:"brief_update,omitempty"`
	QuickReplies []parse.QuickReply          `json:"quick_replies,omitempty"`
	Interactive  *parse.InteractiveComponent `json:"interactive_component,omitempty"`
	Truncated    bool                        `json:"truncated,omitempty"`
}

// DesignChatService 需求设计对话服务
// 每轮对话：带历史调用模型 -> 抽取结构化块 -> 解码 -> 合并简报 -> 事务落库
type DesignChatService struct {
	chain       chatInvoker
	sessionRepo repository.ConversationSessionRepository
	turnRepo    repository.ConversationTurnRepository
	tx          repository.Transactor
	usage       service.LLMUsageRecorder
	cfg         *config.Config
}

// NewDesignChatService 创建设计对话服务
func NewDesignChatService(
	factory workflowport.ChatModelFactory,
	sessionRepo repository.ConversationSessionRepository,
	turnRepo repository.ConversationTurnRepository,
	tx repository.Transactor,
	usage service.LLMUsageRecorder,
	cfg *config.Config,
) *DesignChatService {
	return &DesignChatService{
		chain:       workflowchain.NewDesignChatChain(factory),
		sessionRepo: sessionRepo,
		turnRepo:    turnRepo,
		tx:          tx,
		usage:       usage,
		cfg:         cfg,
	}
}

// Chat 执行一轮设计对话
func (s *DesignChatService) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "message is required")
	}

	session, err := s.loadOrCreateSession(ctx, req)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.SessionIDKey, session.ID)

	history, err := s.loadHistory(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load conversation history")
	}

	start := time.Now()
	outMsg, err := s.chain.Invoke(ctx, &wfmodel.DesignChatInput{
		Message:     req.Message,
		History:     history,
		Brief:       marshalBrief(session.Brief),
		Provider:    req.Provider,
		Model:       req.Model,
		Temperature: ptrFloat32(float32(s.cfg.Generation.Chat.Temperature)),
		MaxTokens:   ptrInt(s.cfg.Generation.Chat.MaxTokens),
	})
	if err != nil {
		return nil, wfnode.ClassifyModelError(err)
	}
	s.recordUsage(ctx, req, outMsg, time.Since(start))

	result, meta := s.parseReply(ctx, outMsg.Content)
	result.SessionID = session.ID

	if meta.BriefUpdate != nil {
		session.ApplyBriefUpdate(&entity.ProjectBrief{
			Purpose:        meta.BriefUpdate.Purpose,
			TargetAudience: meta.BriefUpdate.TargetAudience,
			DesignNotes:    meta.BriefUpdate.DesignNotes,
			ContentNotes:   meta.BriefUpdate.ContentNotes,
			WebStructure:   meta.BriefUpdate.Structure(),
		})
		result.BriefUpdated = true
	}
	result.Brief = session.Brief

	metaRaw, _ := json.Marshal(meta)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.turnRepo.Create(txCtx, entity.NewConversationTurn(session.ID, entity.RoleUser, req.Message, nil)); err != nil {
			return err
		}
		if err := s.turnRepo.Create(txCtx, entity.NewConversationTurn(session.ID, entity.RoleAssistant, result.Reply, metaRaw)); err != nil {
			return err
		}
		return s.sessionRepo.Update(txCtx, session)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to persist conversation turn")
	}

	return result, nil
}

// GetSession 查询会话，校验归属
func (s *DesignChatService) GetSession(ctx context.Context, userID, sessionID string) (*entity.ConversationSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load session")
	}
	if session == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return session, nil
}

// ListSessions 分页查询用户的会话
func (s *DesignChatService) ListSessions(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	result, err := s.sessionRepo.ListByUser(ctx, userID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list sessions")
	}
	return result, nil
}

// ListTurns 分页查询会话内的对话回合
func (s *DesignChatService) ListTurns(ctx context.Context, userID, sessionID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationTurn], error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	result, err := s.turnRepo.ListBySession(ctx, sessionID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list conversation turns")
	}
	return result, nil
}

func (s *DesignChatService) loadOrCreateSession(ctx context.Context, req *ChatRequest) (*entity.ConversationSession, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		session := entity.NewConversationSession(req.UserID, req.WebsiteID)
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create session")
		}
		return session, nil
	}
	return s.GetSession(ctx, req.UserID, req.SessionID)
}

func (s *DesignChatService) loadHistory(ctx context.Context, sessionID string) ([]wfmodel.ChatTurn, error) {
	turns, err := s.turnRepo.ListRecentBySession(ctx, sessionID, chatHistoryLimit)
	if err != nil {
		return nil, err
	}
	history := make([]wfmodel.ChatTurn, 0, len(turns))
	for _, turn := range turns {
		history = append(history, wfmodel.ChatTurn{
			Role:    string(turn.Role),
			Content: wfnode.TruncateByRunes(turn.Content, chatHistoryContentMax),
		})
	}
	return history, nil
}

// parseReply 从模型回复中抽取并解码全部结构化块
func (s *DesignChatService) parseReply(ctx context.Context, content string) (*ChatResult, *turnMetadata) {
	extracted := parse.Extract(content, parse.DefaultSpecs())
	for _, dup := range extracted.Duplicates {
		logger.Warn(ctx, "duplicate structured block dropped", "block_type", string(dup.Type))
	}

	result := &ChatResult{Reply: extracted.Residual}
	meta := &turnMetadata{}

	for typ, blk := range extracted.Blocks {
		metrics.BlockExtractTotal.WithLabelValues(string(typ)).Inc()
		if blk.PossiblyTruncated {
			result.PossiblyTruncated = true
			meta.Truncated = true
		}

		var outcome parse.Outcome
		switch typ {
		case parse.BlockProjectBriefUpdate:
			meta.BriefUpdate, outcome = parse.DecodeBriefUpdate(blk.Payload)
		case parse.BlockQuickReplies:
			result.QuickReplies, outcome = parse.DecodeQuickReplies(blk.Payload)
			meta.QuickReplies = result.QuickReplies
		case parse.BlockInteractiveComponent:
			result.Interactive, outcome = parse.DecodeInteractiveComponent(blk.Payload)
			meta.Interactive = result.Interactive
		default:
			continue
		}

		metrics.BlockDecodeTotal.WithLabelValues(string(typ), string(outcome)).Inc()
		if outcome == parse.OutcomeFailure {
			logger.Warn(ctx, "failed to decode structured block", "block_type", string(typ))
		}
	}

	return result, meta
}

func (s *DesignChatService) recordUsage(ctx context.Context, req *ChatRequest, msg *schema.Message, elapsed time.Duration) {
	if s.usage == nil || msg == nil {
		return
	}
	in := service.LLMUsageInput{
		UserID:     req.UserID,
		Workflow:   "design_chat",
		Provider:   strings.TrimSpace(req.Provider),
		Model:      strings.TrimSpace(req.Model),
		DurationMs: int(elapsed.Milliseconds()),
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		in.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		in.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	if err := s.usage.Record(ctx, in); err != nil {
		logger.Warn(ctx, "failed to record llm usage", "error", err.Error())
	}
}
