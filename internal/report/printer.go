package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ca-srg/ccrcheck/internal/cluster"
)

// Section is the result of one query, printed under its own header.
type Section struct {
	Label     string
	Indices   []string
	TotalHits int
	// TimedOut is set when the cluster returned a partial page.
	TimedOut bool
	Hits     []cluster.Hit
}

// Printer writes query results as plain text sections or as JSON lines. Every
// call writes its output before returning, so a section is visible before the
// next cluster is queried.
type Printer struct {
	w        io.Writer
	json     bool
	sections int
}

type jsonSection struct {
	Type      string            `json:"type"`
	Label     string            `json:"label"`
	Indices   []string          `json:"indices"`
	Total     int               `json:"total"`
	TimedOut  bool              `json:"timed_out,omitempty"`
	Documents []json.RawMessage `json:"documents"`
}

type jsonComparison struct {
	Type string `json:"type"`
	*Comparison
	InSync bool `json:"in_sync"`
}

// NewPrinter returns a text printer, or a JSON lines printer when asJSON is set.
func NewPrinter(w io.Writer, asJSON bool) *Printer {
	return &Printer{w: w, json: asJSON}
}

// Section prints the header followed by each document's source, one per line,
// in the order the cluster returned them. In JSON mode the whole section is
// one line.
func (p *Printer) Section(s Section) error {
	defer func() { p.sections++ }()

	if p.json {
		docs := make([]json.RawMessage, 0, len(s.Hits))
		for _, hit := range s.Hits {
			docs = append(docs, sourceOrNull(hit.Source))
		}
		indices := s.Indices
		if indices == nil {
			indices = []string{}
		}
		return p.writeLine(jsonSection{
			Type:      "section",
			Label:     s.Label,
			Indices:   indices,
			Total:     s.TotalHits,
			TimedOut:  s.TimedOut,
			Documents: docs,
		})
	}

	prefix := ""
	if p.sections > 0 {
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(p.w, "%s*** %s ***\n", prefix, s.Label); err != nil {
		return err
	}

	for _, hit := range s.Hits {
		line, err := compactSource(hit.Source)
		if err != nil {
			return fmt.Errorf("document %s in %s: %w", hit.ID, hit.Index, err)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}

	return nil
}

// Comparison prints the leader/follower summary.
func (p *Printer) Comparison(c *Comparison) error {
	if p.json {
		return p.writeLine(jsonComparison{Type: "comparison", Comparison: c, InSync: c.InSync()})
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n*** Replication check ***\n")
	fmt.Fprintf(&buf, "%s: %d documents, %s: %d documents\n", c.Leader, c.LeaderCount, c.Follower, c.FollowerCount)
	if c.InSync() {
		fmt.Fprintln(&buf, "Result: in sync")
	} else {
		fmt.Fprintln(&buf, "Result: out of sync")
		writeIDs(&buf, "Missing on "+c.Follower, c.MissingOnFollower)
		writeIDs(&buf, "Only on "+c.Follower, c.OnlyOnFollower)
		writeIDs(&buf, "Different source", c.Changed)
		writeIDs(&buf, "Duplicate id", c.Duplicates)
	}

	_, err := p.w.Write(buf.Bytes())
	return err
}

func (p *Printer) writeLine(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.w.Write(append(line, '\n'))
	return err
}

func writeIDs(buf *bytes.Buffer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(buf, "%s (%d):\n", label, len(ids))
	for _, id := range ids {
		fmt.Fprintf(buf, "  - %s\n", id)
	}
}

func compactSource(src json.RawMessage) (string, error) {
	if len(src) == 0 {
		return "null", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sourceOrNull(src json.RawMessage) json.RawMessage {
	if len(src) == 0 {
		return json.RawMessage("null")
	}
	return src
}
