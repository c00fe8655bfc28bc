// Package prompts builds the chat messages sent to the model for initial
// generation and for follow-up edits.
package prompts

import (
	"fmt"

	"github.com/matiasleandrokruk/deepsite/internal/domain/patch"
	"github.com/matiasleandrokruk/deepsite/internal/infra/llm"
)

// InitialSystemPrompt asks for a complete single-file page.
const InitialSystemPrompt = `ONLY USE HTML, CSS AND JAVASCRIPT. If you want to use ICON make sure to import the library first. Try to create the best UI possible by using only HTML, CSS and JAVASCRIPT. MAKE IT RESPONSIVE USING TAILWINDCSS. Use as much as you can TailwindCSS for the CSS, if you can't do something with TailwindCSS, then use custom CSS (make sure to import <script src="https://cdn.tailwindcss.com"></script> in the head). Also, try to elaborate as much as you can, to create something unique. ALWAYS GIVE THE RESPONSE INTO A SINGLE HTML FILE.`

// FollowUpSystemPrompt asks for edits expressed as search/replace blocks.
var FollowUpSystemPrompt = fmt.Sprintf(`You are an expert web developer modifying an existing HTML file.
The user wants to apply changes based on their request.
You MUST output ONLY the changes required using the following SEARCH/REPLACE block format. Do NOT output the entire file.
Explain the changes briefly *before* the blocks if necessary, but the code changes THEMSELVES MUST be within the blocks.
Format Rules:
1. Start with %[1]s
2. Provide the exact lines from the current code that need to be replaced.
3. Use %[2]s to separate the search block from the replacement.
4. Provide the new lines that should replace the original lines.
5. End with %[3]s
6. You can use multiple SEARCH/REPLACE blocks if changes are needed in different parts of the file.
7. To insert code, use an empty SEARCH block (only %[1]s and %[2]s on their lines) if inserting at the very beginning, otherwise provide the line *before* the insertion point in the SEARCH block and include that line plus the new lines in the REPLACE block.
8. To delete code, provide the lines to delete in the SEARCH block and leave the REPLACE block empty (only %[2]s and %[3]s on their lines).
9. IMPORTANT: The SEARCH block must *exactly* match the current code, including indentation and whitespace.
Example Modifying Code:
`+"```"+`
Some explanation...
%[1]s
    <h1>Old Title</h1>
%[2]s
    <h1>New Title</h1>
%[3]s
%[1]s
  </body>
%[2]s
    <script>console.log("Added script");</script>
  </body>
%[3]s
`+"```"+`
Example Deleting Code:
`+"```"+`
Removing the paragraph...
%[1]s
  <p>This paragraph will be deleted.</p>
%[2]s
%[3]s
`+"```", patch.SearchStart, patch.Divider, patch.ReplaceEnd)

// DefaultPreviousPrompt stands in for the prompt that produced the current
// document when the caller does not send one.
const DefaultPreviousPrompt = "You are modifying the HTML file based on the user's request."

// InitialMessages builds the generation conversation. The seed is chosen by
// priority: redesignMarkdown, then html, then prompt.
func InitialMessages(prompt, redesignMarkdown, html string) []llm.Message {
	var user string
	switch {
	case redesignMarkdown != "":
		user = "Here is my current design as a markdown:\n\n" + redesignMarkdown +
			"\n\nNow, please create a new design based on this markdown."
	case html != "":
		user = "Here is my current HTML code:\n\n```html\n" + html +
			"\n```\n\nNow, please create a new design based on this HTML."
	default:
		user = prompt
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: InitialSystemPrompt},
		{Role: llm.RoleUser, Content: user},
	}
}

// FollowUpMessages builds the edit conversation: the system format rules,
// the prompt that produced html, the current code as the assistant's last
// turn, and the new request. selectedElementHTML narrows the edit to one
// element when set.
func FollowUpMessages(prompt, html, previousPrompt, selectedElementHTML string) []llm.Message {
	if previousPrompt == "" {
		previousPrompt = DefaultPreviousPrompt
	}

	current := "The current code is: \n```html\n" + html + "\n``` "
	if selectedElementHTML != "" {
		current += "\n\nYou have to update ONLY the following element, NOTHING ELSE: \n\n```html\n" +
			selectedElementHTML + "\n```"
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: FollowUpSystemPrompt},
		{Role: llm.RoleUser, Content: previousPrompt},
		{Role: llm.RoleAssistant, Content: current},
		{Role: llm.RoleUser, Content: prompt},
	}
}
