package registry

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/agents/classifier"
	"github.com/tanpawarit/Rocket-Approval-Concierge/agent/agents/infoagent"
	llmx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/llm"
	promptx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/prompt"
)

type registryImpl struct {
	classifier contractx.Classifier
	gatherer   contractx.InfoGatherer
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) InfoGatherer() contractx.InfoGatherer {
	return r.gatherer
}

// New builds the model-backed registry: an LLM classifier plus the
// deterministic info gatherer with an optional contact-lookup gateway.
func New(ctx context.Context, cfg llmx.Config, tools contractx.ToolGateway) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	classifierModelCfg := cfg.OpenRouterFor(llmx.RoleClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}

	llmClassifier, err := classifier.NewLLMClassifier(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		classifier: llmClassifier,
		gatherer:   infoagent.New(tools),
	}, nil
}

// NewRuleBased builds the registry used when no model is configured: the
// keyword classifier and the same deterministic gatherer.
func NewRuleBased(tools contractx.ToolGateway) contractx.Registry {
	return &registryImpl{
		classifier: classifier.NewRuleClassifier(),
		gatherer:   infoagent.New(tools),
	}
}
