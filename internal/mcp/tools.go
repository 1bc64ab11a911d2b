package mcp

// ReplyInput defines the input schema for the reply tool.
type ReplyInput struct {
	Seed    string `json:"seed,omitempty" jsonschema:"word the sentence should be built around; random when empty"`
	Samples int    `json:"samples,omitempty" jsonschema:"number of sentences to generate (at most 100), the one with the highest entropy wins; default from config"`
}

// Candidate is one generated sentence with its entropy score.
type Candidate struct {
	Sentence string `json:"sentence" jsonschema:"generated sentence"`
	Entropy  int    `json:"entropy" jsonschema:"entropy score, higher means more branching"`
}

// ReplyOutput defines the output schema for the reply tool.
type ReplyOutput struct {
	Sentence   string      `json:"sentence" jsonschema:"the chosen reply"`
	Entropy    int         `json:"entropy" jsonschema:"entropy score of the chosen reply"`
	Candidates []Candidate `json:"candidates" jsonschema:"every generated sentence in generation order"`
}

// LearnInput defines the input schema for the learn tool.
type LearnInput struct {
	Text   string `json:"text" jsonschema:"text to learn from"`
	Format string `json:"format,omitempty" jsonschema:"txt splits on sentence punctuation, irc_log learns one line at a time; default txt"`
}

// LearnOutput defines the output schema for the learn tool.
type LearnOutput struct {
	Segments int `json:"segments" jsonschema:"segments read from the text"`
	Learned  int `json:"learned" jsonschema:"segments that added new knowledge"`
	Tuples   int `json:"tuples" jsonschema:"known tuples after learning"`
}

// CommandInput defines the input schema for the command tool.
type CommandInput struct {
	Line string `json:"line" jsonschema:"chat command line such as '~order 2' or 'list'; the prefix is optional"`
}

// CommandOutput defines the output schema for the command tool.
type CommandOutput struct {
	Reply string `json:"reply" jsonschema:"the bot's answer"`
}

// StatusInput defines the input schema for the status tool (no parameters).
type StatusInput struct{}

// StatusOutput defines the output schema for the status tool.
type StatusOutput struct {
	Order        int    `json:"order" jsonschema:"Markov order"`
	Tuples       int    `json:"tuples" jsonschema:"known tuples"`
	Tokens       int    `json:"tokens" jsonschema:"distinct tokens"`
	Starters     int    `json:"starters" jsonschema:"tuples that can start a sentence"`
	Finishers    int    `json:"finishers" jsonschema:"tuples that can end a sentence"`
	Cautious     bool   `json:"cautious" jsonschema:"whether replies end with a question mark"`
	Compensation int    `json:"compensation" jsonschema:"entropy compensation"`
	SampleSize   int    `json:"sample_size" jsonschema:"default samples per reply"`
	Source       string `json:"source,omitempty" jsonschema:"configured corpus source"`
	Format       string `json:"format" jsonschema:"corpus format"`
}
