package response

import (
	"fmt"
	"math/rand"
	"strings"

	"counseling-rag-be/internal/constant"
	"counseling-rag-be/pkg/store"
)

var greetingResponses = []string{
	"안녕하세요! 오늘 기분은 어떠세요? 😊",
	"반가워요! 무엇이든 편하게 이야기해 주세요.",
	"안녕하세요! 오늘 하루는 어떠셨나요?",
}

const chitchatResponse = "저는 심리 상담을 도와드리는 AI예요. 일상적인 대화보다는 회원님의 고민을 듣고 싶어요. 요즘 마음이 힘드신 일이 있으신가요?"

const crisisResponse = "지금 많이 힘드시군요. 당신의 이야기를 듣고 있어요.\n\n" +
	"혼자 감당하기 어려우시다면, 전문 상담사와 이야기해 보시는 것을 권해드려요.\n" +
	"📞 자살예방상담전화: 1393 (24시간)\n" +
	"📞 정신건강위기상담전화: 1577-0199\n\n" +
	"전화하기 어려우시면, 저와 조금 더 이야기 나눠볼까요?"

const lowSimilarityResponse = "해당 질문에는 답변을 드리기 어렵습니다. 다른 질문을 부탁드립니다."

const emptySummaryResponse = "진행된 상담 내역이 없어 요약할 내용이 없습니다."

func GreetingResponse() string {
	return greetingResponses[rand.Intn(len(greetingResponses))]
}

func ChitchatResponse() string {
	return chitchatResponse
}

func CrisisResponse() string {
	return crisisResponse
}

func LowSimilarityResponse() string {
	return lowSimilarityResponse
}

func EmptySummaryResponse() string {
	return emptySummaryResponse
}

// FormatSources renders retrieval survivors into the answer prompt context.
// Each case is tagged with its rank and category; a counselor response rides
// along as an expert guide block. No survivors yields the fixed marker so
// the generator answers from general knowledge.
func FormatSources(results []store.RankedResult) string {
	if len(results) == 0 {
		return constant.NoContextMarker
	}

	blocks := make([]string, 0, len(results))
	for i, res := range results {
		category := res.Meta.Category
		if category == "" {
			category = "일반"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "[상담사례 %d - %s]\n%s", i+1, category, res.Content)
		if res.Meta.CounselorResponse != "" {
			fmt.Fprintf(&b, "\n[전문가 상담 가이드]\n%s", res.Meta.CounselorResponse)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
