package slack

import (
	"encoding/base64"
	"fmt"
	"strings"

	"whchecker-backend/internal/analyzer"
)

const (
	ActionOpenModal  = "whc_open_modal"
	CallbackSubmit   = "whc_modal_submit"
	modalBlockID     = "textblk"
	modalActionID    = "textact"
	feedbackFallback = "5W1Hの不足・曖昧表現の検出結果をお知らせします。"
)

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Element is a Block Kit interactive or input element.
type Element struct {
	Type         string `json:"type"`
	Text         *Text  `json:"text,omitempty"`
	ActionID     string `json:"action_id,omitempty"`
	Value        string `json:"value,omitempty"`
	URL          string `json:"url,omitempty"`
	InitialValue string `json:"initial_value,omitempty"`
	Multiline    bool   `json:"multiline,omitempty"`
}

// Block is a Block Kit layout block.
type Block struct {
	Type     string    `json:"type"`
	BlockID  string    `json:"block_id,omitempty"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
	Element  *Element  `json:"element,omitempty"`
	Label    *Text     `json:"label,omitempty"`
}

// View is a modal surface.
type View struct {
	Type            string  `json:"type"`
	CallbackID      string  `json:"callback_id"`
	PrivateMetadata string  `json:"private_metadata,omitempty"`
	Title           *Text   `json:"title"`
	Submit          *Text   `json:"submit,omitempty"`
	Close           *Text   `json:"close,omitempty"`
	Blocks          []Block `json:"blocks"`
}

func plain(s string) *Text  { return &Text{Type: "plain_text", Text: s} }
func mrkdwn(s string) *Text { return &Text{Type: "mrkdwn", Text: s} }

func section(s string) Block {
	return Block{Type: "section", Text: mrkdwn(s)}
}

// FeedbackBlocks renders an analysis result as the threaded feedback message.
func FeedbackBlocks(result analyzer.AnalysisResult) []Block {
	if !result.Summary.HasIssues {
		return []Block{section("問題は検出されませんでした。")}
	}

	blocks := []Block{{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: "⚠ 伝わりづらい表現の検出", Emoji: true},
	}}

	missing := make([]string, 0, len(result.Missing))
	for _, m := range result.Missing {
		missing = append(missing, fmt.Sprintf("• %s: %s", m.Key.Label(), m.Reason))
	}
	var ambiguous, negative []string
	for _, m := range result.Matches {
		line := fmt.Sprintf("• 「%s」: %s", m.Phrase, m.Reason)
		if m.Category == analyzer.CategoryNegative {
			negative = append(negative, line)
		} else {
			ambiguous = append(ambiguous, line)
		}
	}

	if len(missing) > 0 {
		blocks = append(blocks, section("*5W1H 不足*\n"+strings.Join(missing, "\n")))
	}
	if len(ambiguous) > 0 {
		blocks = append(blocks, section("*曖昧で不安を生む表現*\n"+strings.Join(ambiguous, "\n")))
	}
	if len(negative) > 0 {
		blocks = append(blocks, section("*否定的・攻撃的に受け取られる可能性のある表現*\n"+strings.Join(negative, "\n")))
	}

	if result.Suggestion != nil && strings.TrimSpace(result.Suggestion.Rewrite) != "" {
		rewrite := result.Suggestion.Rewrite
		blocks = append(blocks,
			Block{Type: "divider"},
			section("*提案文（編集して送信できます）*"),
			section("```"+rewrite+"```"),
			Block{Type: "actions", Elements: []Element{{
				Type:     "button",
				Text:     plain("編集して送信"),
				ActionID: ActionOpenModal,
				Value:    EncodeRewrite(rewrite),
			}}},
		)
	}
	return blocks
}

// EncodeRewrite packs a rewrite into a button value.
func EncodeRewrite(rewrite string) string {
	return base64.StdEncoding.EncodeToString([]byte(rewrite))
}

// DecodeRewrite reverses EncodeRewrite, returning the raw value when it is not base64.
func DecodeRewrite(value string) string {
	if value == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return value
	}
	return string(decoded)
}

// EditModal is the modal that lets a user edit the rewrite before sending it.
func EditModal(initial, privateMetadata string) View {
	return View{
		Type:            "modal",
		CallbackID:      CallbackSubmit,
		PrivateMetadata: privateMetadata,
		Title:           plain("提案文を編集して送信"),
		Submit:          plain("送信"),
		Close:           plain("キャンセル"),
		Blocks: []Block{{
			Type:    "input",
			BlockID: modalBlockID,
			Element: &Element{
				Type:         "plain_text_input",
				ActionID:     modalActionID,
				InitialValue: initial,
				Multiline:    true,
			},
			Label: plain("送信内容"),
		}},
	}
}

// authorizeBlocks asks the user to authorize message edits.
func authorizeBlocks(installURL string) []Block {
	return []Block{
		section("元のメッセージを編集するには認可が必要です。"),
		{Type: "actions", Elements: []Element{{
			Type: "button",
			Text: plain("認可する"),
			URL:  installURL,
		}}},
	}
}
