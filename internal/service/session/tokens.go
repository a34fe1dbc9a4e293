package session

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many model tokens a text spans. Used only
// for diagnostics on retained context size.
type TokenCounter interface {
	Count(text string) (int, error)
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding. The first load may
// fetch the BPE ranks, so construct it once at startup.
func NewTiktokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding: %w", err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) (int, error) {
	return len(c.enc.Encode(text, nil, nil)), nil
}
