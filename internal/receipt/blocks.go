package receipt

import (
	"encoding/json"
	"fmt"
	"io"

	"receipts/pkg/models"
)

// ReadPages decodes blocks saved as a JSON array with one block array per image.
func ReadPages(r io.Reader) ([][]models.Block, error) {
	const op = "ReadPages"

	var pages [][]models.Block
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, NewParseError(op, ErrInvalidBlocks, err.Error())
	}
	if len(pages) == 0 {
		return nil, NewParseError(op, ErrNoImages, "")
	}
	for i, blocks := range pages {
		for j, b := range blocks {
			switch b.Kind {
			case models.BlockLine, models.BlockTable, models.BlockCell, models.BlockWord:
			default:
				return nil, NewParseError(op, ErrInvalidBlocks, fmt.Sprintf("image %d block %d: unknown kind %q", i, j, b.Kind))
			}
		}
	}
	return pages, nil
}

// WritePages encodes blocks in the format ReadPages accepts.
func WritePages(w io.Writer, pages [][]models.Block) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pages)
}
