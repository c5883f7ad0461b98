package indexbuild

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// ReadEntries decodes a JSON array of {question, answer} objects. Every
// entry must carry a non-blank question and answer.
func ReadEntries(r io.Reader) ([]faq.Entry, error) {
	var raw []faq.Entry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode faqs: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("faqs file contains no entries")
	}
	entries := make([]faq.Entry, len(raw))
	for i, e := range raw {
		q := strings.TrimSpace(e.Question)
		a := strings.TrimSpace(e.Answer)
		if q == "" || a == "" {
			return nil, fmt.Errorf("faq %d: question and answer are required", i)
		}
		entries[i] = faq.Entry{Question: q, Answer: a}
	}
	return entries, nil
}

// ReadEntriesFile reads entries from path.
func ReadEntriesFile(path string) ([]faq.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEntries(f)
}
