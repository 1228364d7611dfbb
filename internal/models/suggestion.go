package models

// PromptTemplate is a canned prompt offered to users as they type.
type PromptTemplate struct {
	ID       string   `json:"id" example:"explain-code"`
	Title    string   `json:"title" example:"Explain this code"`
	Prompt   string   `json:"prompt" example:"Explain what the following code does, step by step:"`
	Kind     string   `json:"kind" example:"text"`
	Keywords []string `json:"keywords,omitempty"`
	Pattern  string   `json:"-"`
}
