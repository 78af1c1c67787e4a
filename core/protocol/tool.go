package protocol

// Tool advertises a callable capability to the model. Parameters is a JSON
// Schema object describing the arguments; it is passed through to the model
// and never enforced here.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
