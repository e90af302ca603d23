package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/Runbinlin/jbn-daily/internal/event"
	"github.com/Runbinlin/jbn-daily/internal/npc"
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

//go:embed data/daily.yaml data/weekly.yaml data/npcs.yaml
var dataFS embed.FS

// Shape contract for a playable catalog. The engine assumes these minimums;
// Validate enforces them so content edits fail fast at startup.
const (
	MinDailyEvents  = 38
	MinWeeklyEvents = 8
	MinNPCs         = 10
)

// Catalog holds the hand-authored content tables. Entries are templates;
// callers draw working copies and never mutate the tables.
type Catalog struct {
	Daily  []event.Event
	Weekly []event.Event
	NPCs   []npc.Encounter
}

type rawOption struct {
	Label  string `yaml:"label"`
	Story  string `yaml:"story"`
	Skill  int    `yaml:"skill"`
	Stress int    `yaml:"stress"`
}

type rawEvent struct {
	ID          int         `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Options     []rawOption `yaml:"options"`
}

type eventFile struct {
	Events []rawEvent `yaml:"events"`
}

type npcFile struct {
	NPCs []npc.Encounter `yaml:"npcs"`
}

// Load parses the embedded content tables.
func Load() (*Catalog, error) {
	return loadFS(dataFS, "data")
}

// LoadDir parses daily.yaml, weekly.yaml and npcs.yaml from a directory,
// letting deployments swap the content without rebuilding.
func LoadDir(dir string) (*Catalog, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) (*Catalog, error) {
	daily, err := readEvents(fsys, path.Join(dir, "daily.yaml"))
	if err != nil {
		return nil, fmt.Errorf("daily events: %w", err)
	}
	weekly, err := readEvents(fsys, path.Join(dir, "weekly.yaml"))
	if err != nil {
		return nil, fmt.Errorf("weekly events: %w", err)
	}
	raw, err := fs.ReadFile(fsys, path.Join(dir, "npcs.yaml"))
	if err != nil {
		return nil, fmt.Errorf("npcs: %w", err)
	}
	var nf npcFile
	if err := yaml.Unmarshal(raw, &nf); err != nil {
		return nil, fmt.Errorf("npcs: %w", err)
	}

	c := &Catalog{Daily: daily, Weekly: weekly, NPCs: nf.NPCs}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readEvents(fsys fs.FS, name string) ([]event.Event, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var f eventFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make([]event.Event, 0, len(f.Events))
	for _, re := range f.Events {
		if len(re.Options) != 3 {
			return nil, fmt.Errorf("event %d (%s): want exactly 3 options, got %d", re.ID, re.Name, len(re.Options))
		}
		opts := make([]event.Option, 3)
		for i, ro := range re.Options {
			opts[i] = event.Option{
				Skill:  ro.Skill,
				Stress: ro.Stress,
				Label:  ro.Label,
				Story:  ro.Story,
			}
		}
		out = append(out, event.New(re.ID, re.Name, re.Description, opts[0], opts[1], opts[2]))
	}
	return out, nil
}

// Validate enforces the catalog shape contract.
func (c *Catalog) Validate() error {
	if len(c.Daily) < MinDailyEvents {
		return fmt.Errorf("catalog: %d daily events, need at least %d", len(c.Daily), MinDailyEvents)
	}
	if len(c.Weekly) < MinWeeklyEvents {
		return fmt.Errorf("catalog: %d weekly events, need at least %d", len(c.Weekly), MinWeeklyEvents)
	}
	if len(c.NPCs) < MinNPCs {
		return fmt.Errorf("catalog: %d npcs, need at least %d", len(c.NPCs), MinNPCs)
	}
	for i, n := range c.NPCs {
		if n.Name == "" {
			return fmt.Errorf("catalog: npc %d has no name", i)
		}
		if len(n.Prompts) == 0 {
			return fmt.Errorf("catalog: npc %q has an empty prompt set", n.Name)
		}
		if n.Accept.Summary == "" || n.Reject.Summary == "" {
			return fmt.Errorf("catalog: npc %q is missing an option summary", n.Name)
		}
	}
	return nil
}

// DrawDaily returns a freshly shuffled working copy of a uniformly drawn
// daily event.
func (c *Catalog) DrawDaily(src rng.Source) event.Event {
	ev := c.Daily[src.IntN(len(c.Daily))].Clone()
	ev.Reshuffle(src)
	return ev
}

// DrawWeekly returns a freshly shuffled working copy of a uniformly drawn
// weekly event.
func (c *Catalog) DrawWeekly(src rng.Source) event.Event {
	ev := c.Weekly[src.IntN(len(c.Weekly))].Clone()
	ev.Reshuffle(src)
	return ev
}

// DailyNPCs draws today's encounter subset from the roster.
func (c *Catalog) DailyNPCs(src rng.Source, maxPerDay int) []npc.Encounter {
	return npc.DailySubset(src, c.NPCs, maxPerDay)
}
