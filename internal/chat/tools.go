package chat

import "encoding/json"

const (
	ToolAddNewPaper = "add_new_paper"
	ToolRAGSearch   = "rag_search"
)

// SystemPrompt instructs the model to answer only from the indexed papers.
const SystemPrompt = `
You are a concise, no-fluff assistant that answers questions based strictly on the content of academic papers in the knowledge base.

- Provide direct, specific answers — avoid introductions, summaries, or high-level overviews.
- Do not restate the question. Do not suggest the user read the paper.
- Only include information explicitly found in the source documents.
- If the answer is not in the context, say "I couldn’t find that in the papers I have access to."
- When listing or comparing, use bullet points or numbered lists.
- Do not speculate. Be clear when information is missing or uncertain.

If a user asks to add a new paper, call the appropriate function tool with the exact file path.
`

// DefaultFallback is returned when retrieval finds nothing.
const DefaultFallback = "I couldn’t find that in the papers I have access to."

// Catalog is the tool set offered on the first completion of every turn.
var Catalog = []Tool{
	{
		Name:        ToolAddNewPaper,
		Description: "Add an uploaded paper to the knowledge base by file name.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"filename": {
					"type": "string",
					"description": "Exact filename of the uploaded paper, e.g. 'transformers.pdf'"
				}
			},
			"required": ["filename"]
		}`),
	},
	{
		Name:        ToolRAGSearch,
		Description: "Retrieve relevant academic content to answer the user's question.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The question to answer using academic documents."
				}
			},
			"required": ["query"]
		}`),
	},
}

type addNewPaperArgs struct {
	Filename string `json:"filename"`
}

type ragSearchArgs struct {
	Query string `json:"query"`
}
