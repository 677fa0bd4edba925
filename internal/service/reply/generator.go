// Package reply produces the supportive reply sent back for each analyzed
// message. The pipeline only sees the Generator contract; the default is a
// canned per-mood responder and an LLM-backed one is swapped in when Ark
// credentials are configured.
package reply

import "context"

// Generator turns a detected mood label into a natural-language reply.
type Generator interface {
	Generate(ctx context.Context, mood string) (string, error)
}

var cannedReplies = map[string]string{
	"قلق":   "أتفهم شعورك بالقلق. خذ نفسًا عميقًا، أنت لست وحدك، وسنمر بهذا معًا خطوة بخطوة.",
	"حزن":   "أشعر بثقل ما تمر به. مشاعرك مفهومة ومن حقك أن تحزن، وأنا هنا لأستمع إليك.",
	"غضب":   "الغضب شعور طبيعي. دعنا نحاول فهم ما أثاره، وخذ لحظة لتهدأ قبل أن نكمل الحديث.",
	"سعادة": "يسعدني سماع ذلك! حافظ على هذه الطاقة الإيجابية وشاركني ما الذي جعل يومك أفضل.",
}

const defaultReply = "شكرًا لمشاركتك. أنا هنا للاستماع إليك، أخبرني أكثر عن شعورك."

// StaticGenerator answers from a fixed per-mood table. Deterministic, which
// keeps the dev mode and the test suite independent of any model backend.
type StaticGenerator struct{}

// NewStaticGenerator returns the canned-reply generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

func (g *StaticGenerator) Generate(_ context.Context, mood string) (string, error) {
	if reply, ok := cannedReplies[mood]; ok {
		return reply, nil
	}
	return defaultReply, nil
}
