package vpsdb

import (
	"fmt"

	"vpxmerge/internal/identification"
)

// Catalog is a decoded feed with lookup indexes. It is immutable once built.
type Catalog struct {
	games    []Game
	byID     map[string]int
	names    *identification.Index
	romCodes *identification.Index
}

// NewCatalog indexes games by name and ROM code.
func NewCatalog(games []Game) *Catalog {
	c := &Catalog{
		games: games,
		byID:  make(map[string]int, len(games)),
	}
	for i, game := range games {
		if _, ok := c.byID[game.ID]; !ok {
			c.byID[game.ID] = i
		}
	}
	c.names = BuildIndex(games)
	c.romCodes = BuildROMIndex(games)
	return c
}

// Len returns the number of games.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.games)
}

// Game returns the game with the given feed id.
func (c *Catalog) Game(id string) (Game, bool) {
	if c == nil {
		return Game{}, false
	}
	pos, ok := c.byID[id]
	if !ok {
		return Game{}, false
	}
	return c.games[pos], true
}

// Names returns the name index.
func (c *Catalog) Names() *identification.Index {
	if c == nil {
		return nil
	}
	return c.names
}

// ROMCodes returns the ROM code index.
func (c *Catalog) ROMCodes() *identification.Index {
	if c == nil {
		return nil
	}
	return c.romCodes
}

// BuildIndex keys every game by its name and by "name (manufacturer year)",
// each in folded, normalized and word-sorted form.
func BuildIndex(games []Game) *identification.Index {
	var builder identification.IndexBuilder
	for _, game := range games {
		if game.ID == "" || game.Name == "" {
			continue
		}
		builder.AddName(game.ID, game.Name)
		if game.Manufacturer != "" && game.Year > 0 {
			builder.Add(game.ID, fmt.Sprintf("%s (%s %d)", game.Name, game.Manufacturer, game.Year))
		}
	}
	return builder.Build()
}

// BuildROMIndex keys every game by its published ROM codes.
func BuildROMIndex(games []Game) *identification.Index {
	var builder identification.IndexBuilder
	for _, game := range games {
		if game.ID == "" {
			continue
		}
		builder.Add(game.ID, game.RomNames()...)
	}
	return builder.Build()
}
