package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "rapidsite-ai-api/internal/domain/service"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	workflowport "rapidsite-ai-api/internal/workflow/port"
	workflowprompt "rapidsite-ai-api/internal/workflow/prompt"
)

// DesignChatChain 设计对话链，围绕项目简报与用户多轮交流
type DesignChatChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.DesignChatInput, *schema.Message]
	chainErr  error
}

func NewDesignChatChain(factory workflowport.ChatModelFactory) *DesignChatChain {
	return &DesignChatChain{factory: factory}
}

func (c *DesignChatChain) Invoke(ctx context.Context, in *wfmodel.DesignChatInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type designChatChainState struct {
	In       *wfmodel.DesignChatInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *DesignChatChain) getChain() (compose.Runnable[*wfmodel.DesignChatInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *DesignChatChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.DesignChatInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.DesignChatInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.DesignChatInput) (*designChatChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Message) == "" {
				return nil, fmt.Errorf("message is empty")
			}
			return &designChatChainState{In: in}, nil
		}),
		compose.WithNodeName("design_chat.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *designChatChainState) (*designChatChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatDesignChatMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("design_chat.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *designChatChainState) (*designChatChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "design_chat", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildSamplingOptions(st.In.Model, st.In.Temperature, st.In.MaxTokens)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("design_chat.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *designChatChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("design_chat.finalize"),
	)

	return chain.Compile(ctx)
}

func formatDesignChatMessages(ctx context.Context, in *wfmodel.DesignChatInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptDesignChatV1)
	if err != nil {
		return nil, err
	}
	brief := strings.TrimSpace(in.Brief)
	if brief == "" {
		brief = "{}"
	}
	vars := map[string]any{
		"brief":   brief,
		"history": buildHistoryBlock(in.History),
		"message": strings.TrimSpace(in.Message),
	}
	return tpl.Format(ctx, vars)
}

// buildHistoryBlock 把历史轮次压成模板可用的纯文本
func buildHistoryBlock(history []wfmodel.ChatTurn) string {
	if len(history) == 0 {
		return "(no previous turns)"
	}
	var sb strings.Builder
	for _, turn := range history {
		role := strings.TrimSpace(turn.Role)
		if role == "" {
			role = "user"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
