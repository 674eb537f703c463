package gemini

import (
	"fmt"
	"strings"

	"github.com/memora-app/memora/internal/store"
)

// analysisPromptTemplate asks the model to derive a character memory for the
// target person from a raw chat log. The output rules demand a JSON-only
// response matching the store.Profile shape.
// The format parameters are: original filename, target name (three times),
// and the raw chat text.
const analysisPromptTemplate = `
你正在分析一份 LINE 私人聊天紀錄。

【重要背景資訊】
- 檔名為：「%s」
- 這是使用者與「%s」的一對一聊天
- 你【只能】分析並模仿「%s」
- 請忽略其他聊天參與者（包含使用者）

【任務】
請根據聊天內容，產生「只屬於 %s」的角色記憶。

【輸出規則（非常重要）】
- 你【只能】輸出 JSON
- 不可有任何說明文字、Markdown、註解
- JSON 結構必須完全符合以下格式

{
  "nickname": "暱稱",
  "relationship": "與使用者的關係",
  "avatar_url": "",
  "personality_prompt": "完整、可直接餵給聊天模型的人格描述",
  "analysis_status": "completed",
  "sample_messages": ["訊息1", "訊息2"]
}

【聊天內容】
%s
`

// roleplayPromptTemplate asks the model to continue the conversation in
// character. Parameters: personality prompt (verbatim from the profile) and
// the rendered transcript.
const roleplayPromptTemplate = `
你正在模仿以下角色：
%s

以下是你與使用者的對話紀錄：
%s

請接著回覆使用者最新一句話。
`

// userSpeakerLabel labels the human side of the rendered transcript.
const userSpeakerLabel = "使用者"

// BuildAnalysisPrompt assembles the analysis prompt for a chat-log upload.
func BuildAnalysisPrompt(chatText, targetName, originalFilename string) string {
	return fmt.Sprintf(analysisPromptTemplate, originalFilename, targetName, targetName, targetName, chatText)
}

// BuildRoleplayPrompt assembles the in-character continuation prompt from the
// stored personality description and the rendered transcript.
func BuildRoleplayPrompt(personalityPrompt, transcript string) string {
	return fmt.Sprintf(roleplayPromptTemplate, personalityPrompt, transcript)
}

// RenderTranscript renders a turn history as one line per turn, labelled
// with 使用者 for user turns and the profile's display name for bot turns.
func RenderTranscript(turns []store.Turn, displayName string) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := displayName
		if t.Role == store.RoleUser {
			speaker = userSpeakerLabel
		}
		lines = append(lines, fmt.Sprintf("%s：%s", speaker, t.Text))
	}
	return strings.Join(lines, "\n")
}
