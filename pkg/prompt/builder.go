package prompt

import (
	"encoding/json"
	"fmt"

	"viralstudio/pkg/domain"
)

// The persona/rules document sent as the system instruction. The
// response_structure block mirrors domain.GeneratedContent field for field
// so the model's JSON reply decodes directly into it.
type systemInstruction struct {
	SystemInstruction string       `json:"system_instruction"`
	ContentRules      contentRules `json:"content_rules"`
	ResponseStructure respSchema   `json:"response_structure"`
	OutputInstruction string       `json:"output_instruction"`
}

type contentRules struct {
	Tone          string            `json:"tone"`
	WritingStyle  map[string]string `json:"writing_style"`
	LengthControl lengthControl     `json:"length_control"`
	Structure     structureRules    `json:"structure"`
	Components    contentComponents `json:"content_components"`
}

type lengthControl struct {
	StrictMode bool   `json:"strict_mode"`
	Note       string `json:"note"`
}

type structureRules struct {
	Enable bool              `json:"enable"`
	Types  map[string]string `json:"types"`
}

type contentComponents struct {
	MustInclude []string          `json:"must_include"`
	Optional    map[string]string `json:"optional"`
}

type respSchema struct {
	Content     string   `json:"content"`
	Captions    []string `json:"captions"`
	Hashtags    []string `json:"hashtags"`
	CTA         string   `json:"cta"`
	AltVersion  string   `json:"alt_version"`
	Keywords    []string `json:"keywords"`
	VisualGuide string   `json:"visual_guide"`
	ToneUsed    string   `json:"tone_used"`
}

var instructionDoc = systemInstruction{
	SystemInstruction: "Bạn là công cụ chuyên tạo nội dung hiện đại, đậm tính FOMO và có khả năng viral cao. Khi người dùng cung cấp một chủ đề, bạn sinh ra nội dung tối ưu cho video ngắn, bài viết mạng xã hội, caption hoặc voiceover. Nội dung luôn rõ ràng, giàu hình ảnh, dễ thu hút, phù hợp giao diện web và ứng dụng hiện đại. Tất cả phản hồi phải đúng định dạng JSON.",
	ContentRules: contentRules{
		Tone: "modern viral fomo",
		WritingStyle: map[string]string{
			"general": "câu ngắn, nhịp nhanh, giàu hình dung, tạo được sự gấp gáp, kích thích người xem",
		},
		LengthControl: lengthControl{
			StrictMode: true,
			Note:       "AI MUST follow the word count limits strictly defined in the user prompt.",
		},
		Structure: structureRules{
			Enable: true,
			Types: map[string]string{
				"hook_first":     "bắt đầu bằng câu gây sốc hoặc câu hỏi FOMO",
				"story_style":    "tạo cảm giác đang xem một phân đoạn phim",
				"fact_style":     "dùng số liệu, facts mạnh để tăng độ tin cậy",
				"question_based": "kích hoạt tò mò bằng câu hỏi ngay dòng đầu",
			},
		},
		Components: contentComponents{
			MustInclude: []string{
				"nội dung chính (content) TUÂN THỦ NGHIÊM NGẶT ĐỘ DÀI",
				"3 caption tối ưu FOMO",
				"bộ hashtag gồm: nhóm chính, nhóm mở rộng và nhóm viral",
			},
			Optional: map[string]string{
				"cta":          "tạo 1 câu kêu gọi tương tác mạnh",
				"alt_versions": "tạo thêm 1 phiên bản khác với tone khác",
				"keywords":     "đề xuất các từ khóa phù hợp SEO và search",
				"visual_guide": "mô tả mood màu, ánh sáng, nhịp dựng video",
			},
		},
	},
	ResponseStructure: respSchema{
		Content:     "string (The main body text)",
		Captions:    []string{"string", "string", "string"},
		Hashtags:    []string{"string"},
		CTA:         "string_optional",
		AltVersion:  "string_optional",
		Keywords:    []string{"string_optional"},
		VisualGuide: "string_optional (Descriptive guide for visuals/video)",
		ToneUsed:    "modern viral fomo",
	},
	OutputInstruction: "Return ONLY JSON. No markdown formatting like ```json.",
}

// Hard length rules interpolated into the user prompt, keyed by the
// requested length. Unknown lengths fall back to medium.
var lengthRules = map[domain.ContentLength]string{
	domain.LengthShort:  "SIÊU NGẮN (Super Short): Tối đa 3 câu. Dưới 100 từ. Cực gắt, đi thẳng vào vấn đề. Phù hợp Reels/TikTok 15s.",
	domain.LengthMedium: "VỪA PHẢI (Medium): 2 đoạn văn ngắn. Khoảng 450-500 từ. Đủ ý, có mở đầu hấp dẫn và kết thúc thúc giục. Phù hợp Facebook Post.",
	domain.LengthLong:   "RẤT CHI TIẾT (Long Script): Dài trên 1000 từ. Chia thành các phần rõ rệt (Hook, 3 luận điểm chính, Kết luận). Kể chuyện chi tiết, đào sâu vấn đề. Phù hợp Blog/Youtube Script.",
}

const userPromptFormat = `CHỦ ĐỀ (TOPIC): %s
CHẾ ĐỘ (MODE): %s
PHONG CÁCH (STYLE): %s

YÊU CẦU ĐỘ DÀI (LENGTH CONSTRAINT): %s

Generate viral content now based on these parameters. Ensure the 'content' field matches the length requirement exactly.`

// Build renders the system and user prompts for a generation request.
// It performs no I/O and the output carries no secrets, so both strings are
// safe to log.
func Build(req domain.GenerationRequest) (systemPrompt, userPrompt string) {
	doc, err := json.Marshal(instructionDoc)
	if err != nil {
		// The document is a fixed value of marshalable types.
		panic(fmt.Sprintf("prompt: marshal instruction document: %v", err))
	}
	rule, ok := lengthRules[req.Length]
	if !ok {
		rule = lengthRules[domain.LengthMedium]
	}
	return string(doc), fmt.Sprintf(userPromptFormat, req.Topic, req.Mode, req.Style, rule)
}
