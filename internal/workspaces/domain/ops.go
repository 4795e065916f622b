package domain

import "fmt"

const (
	OpInsert  = "insert"
	OpDelete  = "delete"
	OpReplace = "replace"
)

// Op is a splice on the note text. Pos and Length count code points.
type Op struct {
	Type   string `json:"type"`
	Pos    int    `json:"pos"`
	Length int    `json:"length,omitempty"`
	Text   string `json:"text,omitempty"`
}

// ApplyOps applies ops in order. Any invalid op rejects the whole batch.
func ApplyOps(content string, ops []Op) (string, error) {
	if len(ops) == 0 || len(ops) > MaxOpsPerBatch {
		return "", fmt.Errorf("%w: batch must hold 1..%d ops", ErrInvalidOp, MaxOpsPerBatch)
	}

	text := []rune(content)
	for i, op := range ops {
		if op.Pos < 0 || op.Pos > len(text) {
			return "", fmt.Errorf("%w: op %d position %d out of range", ErrInvalidOp, i, op.Pos)
		}

		switch op.Type {
		case OpInsert:
			if op.Text == "" {
				return "", fmt.Errorf("%w: op %d inserts nothing", ErrInvalidOp, i)
			}
			text = splice(text, op.Pos, 0, []rune(op.Text))

		case OpDelete:
			if op.Length <= 0 || op.Pos+op.Length > len(text) {
				return "", fmt.Errorf("%w: op %d deletes outside the text", ErrInvalidOp, i)
			}
			text = splice(text, op.Pos, op.Length, nil)

		case OpReplace:
			if op.Length < 0 || op.Pos+op.Length > len(text) {
				return "", fmt.Errorf("%w: op %d replaces outside the text", ErrInvalidOp, i)
			}
			text = splice(text, op.Pos, op.Length, []rune(op.Text))

		default:
			return "", fmt.Errorf("%w: op %d has unknown type %q", ErrInvalidOp, i, op.Type)
		}

		if len(text) > MaxNoteLen {
			return "", fmt.Errorf("%w: note would exceed %d characters", ErrInvalidOp, MaxNoteLen)
		}
	}
	return string(text), nil
}

func splice(text []rune, pos, n int, insert []rune) []rune {
	out := make([]rune, 0, len(text)-n+len(insert))
	out = append(out, text[:pos]...)
	out = append(out, insert...)
	return append(out, text[pos+n:]...)
}
