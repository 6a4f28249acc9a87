// Package levels loads fixed board layouts from disk, falling back to the
// geometric generator in pkg/hexgame when no fixed layout exists for a
// given player count. Layouts live as a directory of "<player count>.json"
// files, each a coordinate set.
package levels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

type coordFile struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Loader serves board coordinate sets keyed by player count, preferring a
// fixed layout loaded from disk and falling back to a geometrically
// generated one.
type Loader struct {
	dir string

	mu    sync.RWMutex
	fixed map[int][]hexgame.HexCoord
}

// New builds a Loader reading "<N>.json" files from dir. dir may be empty,
// in which case every player count falls back to the geometric generator.
func New(dir string) *Loader {
	return &Loader{dir: dir, fixed: make(map[int][]hexgame.HexCoord)}
}

// Load reads every "<N>.json" file in the configured directory. Malformed
// or unreadable files are logged and skipped, not fatal: a game can always
// fall back to the geometric generator.
func (l *Loader) Load() error {
	if l.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("levels: read dir %q: %w", l.dir, err)
	}

	loaded := make(map[int][]hexgame.HexCoord, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".json")
		n, err := strconv.Atoi(stem)
		if err != nil {
			log.Warn().Str("file", entry.Name()).Msg("levels: skipping file, name is not a player count")
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("levels: reading level file")
			continue
		}
		var raw []coordFile
		if err := json.Unmarshal(data, &raw); err != nil {
			log.Error().Err(err).Str("file", path).Msg("levels: parsing level file")
			continue
		}

		coords := make([]hexgame.HexCoord, len(raw))
		for i, c := range raw {
			coords[i] = hexgame.HexCoord{Q: c.Q, R: c.R}
		}
		loaded[n] = coords
	}

	l.mu.Lock()
	l.fixed = loaded
	l.mu.Unlock()
	return nil
}

// CoordinatesFor returns the board domain for playerCount: the fixed
// layout if one was loaded, else a geometrically generated shape.
func (l *Loader) CoordinatesFor(playerCount int) []hexgame.HexCoord {
	l.mu.RLock()
	coords, ok := l.fixed[playerCount]
	l.mu.RUnlock()
	if ok {
		return coords
	}
	return hexgame.GenerateShape(playerCount, hexgame.DefaultMapRadius)
}

// BoardFor builds a ready-to-play Board for players, using a fixed layout
// when available and placing home bases via the geometric algorithm either
// way (fixed layouts specify terrain, not starting vertices).
func (l *Loader) BoardFor(players []hexgame.Player) hexgame.Board {
	coords := l.CoordinatesFor(len(players))
	return hexgame.GenerateBoard(players, coords)
}
