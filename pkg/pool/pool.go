package pool

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// sourceSpec describes the TSV shape of one corpus file. Columns are
// word, reading[, meaning[, id]].
type sourceSpec struct {
	name       string
	file       string
	hasMeaning bool
	hasID      bool
}

var sources = []sourceSpec{
	{name: "wikipedia", file: "wikipedia.txt"},
	{name: "wiktionary", file: "wiktionary.txt"},
	{name: "nicopedia", file: "nicopedia.txt", hasMeaning: true},
	{name: "ascii", file: "ascii.txt", hasMeaning: true},
	{name: "binary", file: "binary.txt", hasMeaning: true},
	{name: "ewords", file: "ewords.txt", hasMeaning: true},
	{name: "fideli", file: "fideli.txt", hasMeaning: true, hasID: true},
}

// Pool holds the set of known candidate words usable as themes or decoys.
// It is loaded once at startup and read-only afterwards.
type Pool struct {
	entries []gametypes.Candidate
}

// New creates a pool from a fixed set of candidates.
func New(entries []gametypes.Candidate) *Pool {
	return &Pool{entries: entries}
}

// Load reads every corpus file present under dir. Entries whose reading
// falls outside the playable length range are dropped. Missing files are
// skipped so a partial corpus still yields a usable pool.
func Load(dir string) (*Pool, error) {
	var entries []gametypes.Candidate
	for _, src := range sources {
		path := filepath.Join(dir, src.file)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open corpus %s: %v", path, err)
		}
		parsed, err := parseCorpus(f, src)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse corpus %s: %v", path, err)
		}
		entries = append(entries, parsed...)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no corpus entries found under %s", dir)
	}
	return &Pool{entries: entries}, nil
}

func parseCorpus(f *os.File, src sourceSpec) ([]gametypes.Candidate, error) {
	var entries []gametypes.Candidate
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		c := gametypes.Candidate{
			Word:    fields[0],
			Reading: strings.ToLower(fields[1]),
			Source:  src.name,
		}
		if src.hasMeaning && len(fields) > 2 {
			c.RawMeaning = fields[2]
		}
		if src.hasID && len(fields) > 3 {
			c.ID = fields[3]
		}
		length := utf8.RuneCountInString(c.Reading)
		if length < constants.MinReadingLength || length > constants.MaxReadingLength {
			continue
		}
		entries = append(entries, c)
	}
	return entries, scanner.Err()
}

func (p *Pool) Len() int {
	return len(p.entries)
}

// Sample returns up to n distinct random candidates.
func (p *Pool) Sample(n int) []gametypes.Candidate {
	if n > len(p.entries) {
		n = len(p.entries)
	}
	picked := make([]gametypes.Candidate, 0, n)
	for _, i := range rand.Perm(len(p.entries))[:n] {
		picked = append(picked, p.entries[i])
	}
	return picked
}

// Pick returns one random candidate.
func (p *Pool) Pick() gametypes.Candidate {
	return p.entries[rand.Intn(len(p.entries))]
}

// FindByReading returns the first candidate with the given reading.
func (p *Pool) FindByReading(reading string) (gametypes.Candidate, bool) {
	for _, c := range p.entries {
		if c.Reading == reading {
			return c, true
		}
	}
	return gametypes.Candidate{}, false
}

// NearestReading returns the candidate whose reading has the minimum nonzero
// edit distance to the given reading. Exact reading collisions and the word
// itself are excluded; they would no longer be a decoy.
func (p *Pool) NearestReading(reading, excludeWord string) (gametypes.Candidate, bool) {
	best := -1
	var nearest gametypes.Candidate
	for _, c := range p.entries {
		if c.Word == excludeWord {
			continue
		}
		distance := levenshtein.ComputeDistance(reading, c.Reading)
		if distance == 0 {
			continue
		}
		if best == -1 || distance < best {
			best = distance
			nearest = c
		}
	}
	return nearest, best != -1
}
