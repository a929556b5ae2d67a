// Package ai abstracts the LLM backends used to normalize messy player
// metadata ("Artist - Title (Official Video) [4K]") into clean track info.
package ai

// Client is the text-in, text-out surface the lyrics provider needs.
type Client interface {
	Name() string
	HandleText(msg string) (string, error)
}
