package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
)

const supportSystemPrompt = `أنت مساعد دعم نفسي في منصة "دعم". دورك تقديم رد قصير
داعم ومتعاطف باللغة العربية بناءً على الحالة المزاجية المكتشفة للمستخدم.
لا تقدم تشخيصًا طبيًا ولا وصفات علاجية، وشجّع المستخدم على طلب مساعدة
مختص عند الحاجة. التزم برد واحد من جملتين إلى ثلاث جمل.`

const supportUserPrompt = `الحالة المزاجية المكتشفة للمستخدم: {mood}
اكتب ردًا داعمًا مناسبًا لهذه الحالة.`

// LLMGenerator generates supportive replies through an eino chat chain.
type LLMGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	log   *logrus.Entry
}

// NewLLMGenerator compiles the reply chain on top of the supplied chat model.
func NewLLMGenerator(ctx context.Context, chatModel model.ChatModel) (*LLMGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(supportSystemPrompt),
		schema.UserMessage(supportUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}

	return &LLMGenerator{
		chain: runnable,
		log:   logrus.WithField("component", "reply"),
	}, nil
}

func (g *LLMGenerator) Generate(ctx context.Context, mood string) (string, error) {
	response, err := g.chain.Invoke(ctx, map[string]any{"mood": mood})
	if err != nil {
		return "", fmt.Errorf("run reply chain: %w", err)
	}

	text := strings.TrimSpace(response.Content)
	if text == "" {
		return "", fmt.Errorf("reply chain returned empty content for mood %q", mood)
	}

	g.log.WithField("mood", mood).Debugf("generated reply, length=%d", len(text))
	return text, nil
}
