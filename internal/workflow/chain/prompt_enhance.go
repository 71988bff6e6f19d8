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

// PromptEnhanceChain 提示词增强链，把用户原始请求改写成详细的站点规格
type PromptEnhanceChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.EnhanceInput, *schema.Message]
	chainErr  error
}

func NewPromptEnhanceChain(factory workflowport.ChatModelFactory) *PromptEnhanceChain {
	return &PromptEnhanceChain{factory: factory}
}

func (c *PromptEnhanceChain) Invoke(ctx context.Context, in *wfmodel.EnhanceInput) (*schema.Message, error) {
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

type promptEnhanceChainState struct {
	In       *wfmodel.EnhanceInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *PromptEnhanceChain) getChain() (compose.Runnable[*wfmodel.EnhanceInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *PromptEnhanceChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.EnhanceInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.EnhanceInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.EnhanceInput) (*promptEnhanceChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Prompt) == "" {
				return nil, fmt.Errorf("prompt is empty")
			}
			return &promptEnhanceChainState{In: in}, nil
		}),
		compose.WithNodeName("prompt_enhance.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *promptEnhanceChainState) (*promptEnhanceChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptEnhanceV1)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, map[string]any{
				"prompt": strings.TrimSpace(st.In.Prompt),
			})
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("prompt_enhance.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *promptEnhanceChainState) (*promptEnhanceChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "prompt_enhance", strings.TrimSpace(st.In.Provider))
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
		compose.WithNodeName("prompt_enhance.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *promptEnhanceChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("prompt_enhance.finalize"),
	)

	return chain.Compile(ctx)
}
