package agent

import (
	"encoding/json"

	"github.com/sandevgo/vrmentor/internal/core"
)

const SearchToolName = "search_vr_apps"

var searchToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {
      "type": "string",
      "description": "What the user wants to learn, extracted from the conversation. Examples: 'machine learning', 'cybersecurity', 'public speaking', 'data analysis'"
    }
  },
  "required": ["query"]
}`)

// SearchTool is the only tool the agent exposes to the model.
var SearchTool = core.Tool{
	Type: "function",
	Function: core.Function{
		Name: SearchToolName,
		Description: "Search for VR applications on Meta Quest that match the user's learning goals, " +
			"interests, or skills they want to develop. Use it when the user wants to learn something " +
			"specific, asks for VR app recommendations, or mentions topics they want to improve.",
		Parameters: searchToolSchema,
	},
}

const systemPrompt = `You are a VR app recommender assistant for university students.

Your role:
- Help students find VR applications for Meta Quest that support their learning goals
- Have natural, concise conversations
- Use the search_vr_apps tool ONLY when the user wants VR app recommendations

When to use search_vr_apps:
- "I want to learn cybersecurity" -> search
- "recommend apps for data science" -> search
- "looking for VR training tools" -> search

When NOT to use search_vr_apps:
- "Hi" / "Hello" -> greet back
- "Thanks" -> acknowledge politely
- "What can you do?" -> explain your capabilities
- "Tell me more about [previous app]" -> use the conversation
- General questions about VR -> answer directly

Response style:
- 2-4 sentences for chat, more for recommendations
- Markdown lists for apps, with match percentages
- If a result is marked semantic_bridge, say it is a related match rather than a direct one`
