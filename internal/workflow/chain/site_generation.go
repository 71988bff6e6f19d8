package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "rapidsite-ai-api/internal/domain/service"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	workflowport "rapidsite-ai-api/internal/workflow/port"
	workflowprompt "rapidsite-ai-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// SiteGenerationChain 网站生成链，一次调用产出完整站点文本
type SiteGenerationChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.SiteGenerateInput, *schema.Message]
	chainErr  error
}

func NewSiteGenerationChain(factory workflowport.ChatModelFactory) *SiteGenerationChain {
	return &SiteGenerationChain{factory: factory}
}

func (c *SiteGenerationChain) Invoke(ctx context.Context, in *wfmodel.SiteGenerateInput) (*schema.Message, error) {
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

type siteGenerationChainState struct {
	In       *wfmodel.SiteGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *SiteGenerationChain) getChain() (compose.Runnable[*wfmodel.SiteGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *SiteGenerationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.SiteGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.SiteGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.SiteGenerateInput) (*siteGenerationChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Prompt) == "" {
				return nil, fmt.Errorf("prompt is empty")
			}
			return &siteGenerationChainState{In: in}, nil
		}),
		compose.WithNodeName("site_generation.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *siteGenerationChainState) (*siteGenerationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatSiteGenerationMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("site_generation.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *siteGenerationChainState) (*siteGenerationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "site_generate", strings.TrimSpace(st.In.Provider))
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
		compose.WithNodeName("site_generation.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *siteGenerationChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("site_generation.finalize"),
	)

	return chain.Compile(ctx)
}

func formatSiteGenerationMessages(ctx context.Context, in *wfmodel.SiteGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptSiteGenerateV1)
	if err != nil {
		return nil, err
	}
	brief := strings.TrimSpace(in.Brief)
	if brief == "" {
		brief = "(none)"
	}
	vars := map[string]any{
		"prompt": strings.TrimSpace(in.Prompt),
		"brief":  brief,
	}
	return tpl.Format(ctx, vars)
}

// buildSamplingOptions 组装模型采样选项，nil 字段沿用提供商默认值
func buildSamplingOptions(modelName string, temperature *float32, maxTokens *int) []model.Option {
	opts := make([]model.Option, 0, 3)
	if temperature != nil {
		opts = append(opts, model.WithTemperature(*temperature))
	}
	if maxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*maxTokens))
	}
	if strings.TrimSpace(modelName) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(modelName)))
	}
	return opts
}
