package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type boardDoc struct {
	Board   string      `json:"board" yaml:"board"`
	Columns []columnDoc `json:"columns" yaml:"columns"`
}

type columnDoc struct {
	Status model.Status `json:"status" yaml:"status"`
	Tasks  []taskDoc    `json:"tasks" yaml:"tasks"`
}

type taskDoc struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Position int    `json:"position" yaml:"position"`
}

func newBoardDoc(boardID string, view map[model.Status]model.Column) boardDoc {
	doc := boardDoc{Board: boardID, Columns: make([]columnDoc, 0, len(model.Statuses()))}
	for _, s := range model.Statuses() {
		col := columnDoc{Status: s, Tasks: make([]taskDoc, 0, len(view[s]))}
		for _, t := range view[s] {
			col.Tasks = append(col.Tasks, taskDoc{ID: t.ID, Title: t.Title, Position: t.Position})
		}
		doc.Columns = append(doc.Columns, col)
	}
	return doc
}

// RenderBoard writes the grouped board in the given format. Columns always
// come in Todo, Doing, Done order.
func RenderBoard(w io.Writer, boardID string, view map[model.Status]model.Column, format string) error {
	doc := newBoardDoc(boardID, view)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		enc.SetIndent(2)
		return enc.Encode(doc)
	case FormatText, "":
		return renderText(w, doc)
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func renderText(w io.Writer, doc boardDoc) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Board %s\n", doc.Board)
	for _, col := range doc.Columns {
		fmt.Fprintf(&b, "\n%s (%d)\n", col.Status, len(col.Tasks))
		if len(col.Tasks) == 0 {
			b.WriteString("  -\n")
			continue
		}
		for _, t := range col.Tasks {
			fmt.Fprintf(&b, "  [%d] %s  %s\n", t.Position, t.Title, t.ID)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
