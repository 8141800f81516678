package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIEntry is a JSON-friendly definition entry.
type CLIEntry struct {
	FQN        string   `json:"fqn"`
	Kind       string   `json:"kind"`
	Visibility string   `json:"visibility,omitempty"`
	Superclass string   `json:"superclass,omitempty"`
	Dynamic    bool     `json:"dynamic,omitempty"`
	File       string   `json:"file"`
	StartLine  int      `json:"start_line"`
	StartCol   int      `json:"start_col"`
	EndLine    int      `json:"end_line"`
	EndCol     int      `json:"end_col"`
	Parameters []string `json:"parameters,omitempty"`
}

// CLILocation is a JSON-friendly source location.
type CLILocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIAncestor is one link in an ancestor chain, in lookup order.
type CLIAncestor struct {
	Position int    `json:"position"`
	FQN      string `json:"fqn"`
}

// CLIResolution is a JSON-friendly method resolution answer.
type CLIResolution struct {
	FQN        string `json:"fqn"`
	DeclaredAt string `json:"declared_at,omitempty"`
	Origin     string `json:"origin"`
	OriginFrom string `json:"origin_from,omitempty"`
	Visibility string `json:"visibility"`
	File       string `json:"file"`
	StartLine  int    `json:"start_line"`
	StartCol   int    `json:"start_col"`
}

// CLIConstant is a JSON-friendly constant resolution answer.
type CLIConstant struct {
	FQN     string     `json:"fqn"`
	Entries []CLIEntry `json:"entries"`
}
